package signature

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/cipherjs/internal/cache"
	"github.com/GriffinCanCode/cipherjs/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/cipherjs/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/cipherjs/internal/shared/utils"
	"github.com/GriffinCanCode/cipherjs/pkg/jsinterp"
)

var (
	ErrInvalidLength = errors.New("signature length must be positive")
	ErrNotString     = errors.New("cipher function did not return a string")
	ErrForeignChar   = errors.New("cipher output contains a character not in its input")
	ErrShortInput    = errors.New("signature shorter than the spec requires")
)

// Spec lists, for each output character, the index of the input
// character it is copied from.
type Spec []int

// Solver computes specs and caches them. All fields are optional.
type Solver struct {
	Cache   *cache.Store
	Logger  *zap.Logger
	Metrics *monitoring.Metrics

	// Breaker, when set, guards cache access. While it is open the cache
	// is not touched.
	Breaker *resilience.Breaker

	// Options are applied to the interpreter the cipher runs in
	Options []jsinterp.Option
}

// Spec returns the spec of the cipher function funcName in source, for
// signatures of sigLen characters. player identifies the source in the
// cache key.
func (s *Solver) Spec(ctx context.Context, player, source, funcName string, sigLen int) (Spec, error) {
	if sigLen <= 0 {
		return nil, ErrInvalidLength
	}
	log := s.logger().With(
		zap.String("player", player),
		zap.String("function", funcName),
		zap.Int("sig_len", sigLen),
	)
	key := utils.SpecKey(player, funcName, sigLen)

	if spec, ok := s.cached(key, log); ok {
		return spec, nil
	}

	start := time.Now()
	spec, err := s.solve(ctx, source, funcName, sigLen)
	if err != nil {
		log.Warn("spec extraction failed", zap.Error(err))
		return nil, err
	}
	log.Info("extracted spec", zap.Int("spec_len", len(spec)), zap.Duration("duration", time.Since(start)))

	if s.Cache != nil {
		data, err := sonic.Marshal(spec)
		if err == nil {
			err = s.Breaker.Do(func() error { return s.Cache.Put(key, data) })
		}
		switch {
		case errors.Is(err, resilience.ErrOpen):
			log.Debug("spec cache bypassed")
		case err != nil:
			log.Warn("failed to cache spec", zap.Error(err))
		}
	}
	return spec, nil
}

func (s *Solver) cached(key string, log *zap.Logger) (Spec, bool) {
	if s.Cache == nil {
		return nil, false
	}
	var (
		data []byte
		ok   bool
	)
	err := s.Breaker.Do(func() (err error) {
		data, ok, err = s.Cache.Get(key)
		return err
	})
	if errors.Is(err, resilience.ErrOpen) {
		log.Debug("spec cache bypassed")
		return nil, false
	}
	if err != nil {
		s.Metrics.RecordCacheRequest(monitoring.CacheError)
		log.Warn("spec cache read failed", zap.Error(err))
		return nil, false
	}
	if !ok {
		s.Metrics.RecordCacheRequest(monitoring.CacheMiss)
		return nil, false
	}
	var spec Spec
	if err := sonic.Unmarshal(data, &spec); err != nil {
		s.Metrics.RecordCacheRequest(monitoring.CacheError)
		log.Warn("dropping corrupt cached spec", zap.Error(err))
		_ = s.Cache.Delete(key)
		return nil, false
	}
	s.Metrics.RecordCacheRequest(monitoring.CacheHit)
	log.Debug("spec cache hit")
	return spec, true
}

func (s *Solver) solve(ctx context.Context, source, funcName string, sigLen int) (Spec, error) {
	opts := append([]jsinterp.Option{jsinterp.WithLogger(s.logger())}, s.Options...)
	in, err := jsinterp.New(source, opts...)
	if err != nil {
		return nil, err
	}
	out, err := in.CallFunctionContext(ctx, funcName, TestString(sigLen))
	if err != nil {
		return nil, err
	}
	str, ok := out.(string)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotString, out)
	}
	return specFrom(str, sigLen)
}

func (s *Solver) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// TestString returns n characters with code points 0 through n-1
func TestString(n int) string {
	var b strings.Builder
	for i := range n {
		b.WriteRune(rune(i))
	}
	return b.String()
}

func specFrom(out string, sigLen int) (Spec, error) {
	spec := make(Spec, 0, len(out))
	for i, r := range []rune(out) {
		if int(r) >= sigLen {
			return nil, fmt.Errorf("%w: U+%04X at %d", ErrForeignChar, r, i)
		}
		spec = append(spec, int(r))
	}
	return spec, nil
}

// Decrypt applies spec to sig.
func Decrypt(spec Spec, sig string) (string, error) {
	chars := []rune(sig)
	var b strings.Builder
	b.Grow(len(spec))
	for _, i := range spec {
		if i >= len(chars) {
			return "", fmt.Errorf("%w: index %d, length %d", ErrShortInput, i, len(chars))
		}
		b.WriteRune(chars[i])
	}
	return b.String(), nil
}
