package currency

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/amirasaad/storefront/pkg/money"
	"github.com/amirasaad/storefront/pkg/result"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"
)

// Engine resolves, validates and caches currencies.
type Engine struct {
	source ShopSource
	cache  Cache
	prefs  PreferenceStore
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
	group  singleflight.Group
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for cache freshness.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an Engine. A nil cache or preference store falls back to the
// in-memory implementations.
func NewEngine(
	source ShopSource,
	cache Cache,
	prefs PreferenceStore,
	cfg Config,
	logger *slog.Logger,
	opts ...Option,
) *Engine {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if prefs == nil {
		prefs = NewMemoryPreferences()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	if !money.Normalize(cfg.Fallback).IsValid() {
		cfg.Fallback = "USD"
	}
	e := &Engine{
		source: source,
		cache:  cache,
		prefs:  prefs,
		cfg:    cfg,
		logger: logger.With("component", "currency"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resolve walks the detection chain and returns the first candidate that validates.
func (e *Engine) Resolve(ctx context.Context, sig Signals) Resolution {
	if sig.PlatformCurrency == "" && sig.SessionID != "" {
		sig.PlatformCurrency = e.platformCurrency(ctx, sig.SessionID)
	}
	if sig.PlatformCurrency != "" {
		if code, ok := e.accept(ctx, sig.PlatformCurrency); ok {
			return resolution(code, SourcePlatform, nil)
		}
	}

	if sig.SessionID != "" {
		pref, ok, err := e.prefs.Get(ctx, sig.SessionID)
		if err != nil {
			e.logger.Warn("Failed to read currency preference", "session_id", sig.SessionID, "error", err)
		}
		if ok {
			if code, valid := e.accept(ctx, pref); valid {
				return resolution(code, SourcePreference, nil)
			}
		}
	}

	if sig.Country != "" {
		if code, ok := CountryCurrency(sig.Country); ok {
			if code, valid := e.accept(ctx, code); valid {
				return resolution(code, SourceGeolocation, map[string]string{
					"country": strings.ToUpper(sig.Country),
				})
			}
		}
	}

	if sig.AcceptLanguage != "" {
		if code, locale, ok := e.fromLocale(ctx, sig.AcceptLanguage); ok {
			return resolution(code, SourceLocale, map[string]string{"locale": locale})
		}
	}

	if code, ok := e.ShopCurrency(ctx); ok {
		return resolution(code, SourceShopDefault, nil)
	}

	return resolution(e.cfg.Fallback, SourceFallback, map[string]string{
		"reason": "no currency source available",
	})
}

func resolution(code string, src Source, meta map[string]string) Resolution {
	return Resolution{
		Code:       code,
		Source:     src,
		Confidence: src.Confidence(),
		Metadata:   meta,
	}
}

func (e *Engine) accept(ctx context.Context, raw string) (string, bool) {
	code := money.Normalize(raw)
	if !e.ValidateCurrency(ctx, string(code)) {
		e.logger.Debug("Currency candidate rejected", "currency", raw)
		return "", false
	}
	return string(code), true
}

func (e *Engine) fromLocale(ctx context.Context, header string) (string, string, bool) {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		e.logger.Debug("Unparseable Accept-Language", "value", header, "error", err)
		return "", "", false
	}
	for _, tag := range tags {
		var candidate string
		if region, conf := tag.Region(); conf == language.Exact {
			candidate, _ = CountryCurrency(region.String())
		}
		if candidate == "" {
			base, _ := tag.Base()
			candidate = localeCurrency[base.String()]
		}
		if candidate == "" {
			continue
		}
		if code, ok := e.accept(ctx, candidate); ok {
			return code, tag.String(), true
		}
	}
	return "", "", false
}

// ValidateCurrency normalizes code and checks that it is three letters and, when
// multi-currency is on and the enabled list is known, that the shop accepts it.
func (e *Engine) ValidateCurrency(ctx context.Context, code string) bool {
	c := money.Normalize(code)
	if !c.IsValid() {
		return false
	}
	if !e.cfg.MultiCurrency {
		return true
	}
	enabled := e.EnabledCurrencies(ctx)
	if len(enabled) == 0 {
		return true
	}
	return slices.Contains(enabled, string(c))
}

// CheckCurrency is ValidateCurrency returning the reason a code was refused.
func (e *Engine) CheckCurrency(ctx context.Context, code string) (string, error) {
	c := money.Normalize(code)
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	if !e.ValidateCurrency(ctx, string(c)) {
		return "", fmt.Errorf("%w: %s", ErrCurrencyNotEnabled, c)
	}
	return string(c), nil
}

// SetPreference stores an explicit choice after validating it.
func (e *Engine) SetPreference(ctx context.Context, sessionID, code string) (string, error) {
	c, err := e.CheckCurrency(ctx, code)
	if err != nil {
		return "", err
	}
	if err := e.prefs.Set(ctx, sessionID, c); err != nil {
		return "", fmt.Errorf("store currency preference: %w", err)
	}
	e.forgetPlatformCurrency(ctx, sessionID)
	return c, nil
}

// ClearPreference forgets a stored choice.
func (e *Engine) ClearPreference(ctx context.Context, sessionID string) error {
	if err := e.prefs.Clear(ctx, sessionID); err != nil {
		return err
	}
	e.forgetPlatformCurrency(ctx, sessionID)
	return nil
}

// RememberPlatformCurrency records the currency the platform last stamped on a
// quote for the session. It outranks the stored preference until the shopper
// chooses again.
func (e *Engine) RememberPlatformCurrency(ctx context.Context, sessionID, code string) {
	c := money.Normalize(code)
	if sessionID == "" || !c.IsValid() {
		return
	}
	if err := e.prefs.Set(ctx, platformKey(sessionID), string(c)); err != nil {
		e.logger.Warn("Failed to store platform currency", "session_id", sessionID, "error", err)
	}
}

func (e *Engine) platformCurrency(ctx context.Context, sessionID string) string {
	code, ok, err := e.prefs.Get(ctx, platformKey(sessionID))
	if err != nil {
		e.logger.Warn("Failed to read platform currency", "session_id", sessionID, "error", err)
	}
	if !ok {
		return ""
	}
	return code
}

func (e *Engine) forgetPlatformCurrency(ctx context.Context, sessionID string) {
	if err := e.prefs.Clear(ctx, platformKey(sessionID)); err != nil {
		e.logger.Warn("Failed to clear platform currency", "session_id", sessionID, "error", err)
	}
}

func platformKey(sessionID string) string { return "platform:" + sessionID }

// ShopCurrency returns the shop default currency, fetching it when the cached copy
// is missing or expired. An expired copy is returned when the fetch fails.
func (e *Engine) ShopCurrency(ctx context.Context) (string, bool) {
	cached, found, err := e.cache.ShopCurrency(ctx)
	if err != nil {
		e.logger.Warn("Shop currency cache read failed", "error", err)
	}
	if found && cached.Fresh(e.now(), e.cfg.CacheTTL) {
		e.logger.Debug("Shop currency cache hit", "currency", cached.Value)
		return cached.Value, true
	}

	v, _, _ := e.group.Do("shop", func() (any, error) {
		if e.source == nil {
			return result.Failure[string](result.CodeConfiguration, "no shop source configured"), nil
		}
		return e.source.ShopCurrency(ctx), nil
	})
	res := v.(result.Result[string])
	code := money.Normalize(res.Data)
	if res.Failed() || !code.IsValid() {
		if found {
			e.logger.Warn("Shop currency fetch failed, using expired cache entry",
				"currency", cached.Value, "error", res.Message())
			return cached.Value, true
		}
		e.logger.Warn("Shop currency unavailable", "error", res.Message())
		return "", false
	}
	if err := e.cache.SetShopCurrency(ctx, Entry[string]{Value: string(code), StoredAt: e.now()}); err != nil {
		e.logger.Warn("Shop currency cache write failed", "error", err)
	}
	return string(code), true
}

// EnabledCurrencies returns the codes the shop accepts. An empty list means every
// currency is accepted.
func (e *Engine) EnabledCurrencies(ctx context.Context) []string {
	cached, found, err := e.cache.EnabledCurrencies(ctx)
	if err != nil {
		e.logger.Warn("Enabled currencies cache read failed", "error", err)
	}
	if found && cached.Fresh(e.now(), e.cfg.CacheTTL) {
		return cached.Value
	}

	v, _, _ := e.group.Do("enabled", func() (any, error) {
		if e.source == nil {
			return result.Failure[[]string](result.CodeConfiguration, "no shop source configured"), nil
		}
		return e.source.EnabledCurrencies(ctx), nil
	})
	res := v.(result.Result[[]string])
	if res.Failed() || res.IsDegraded() {
		if found {
			e.logger.Warn("Enabled currencies fetch failed, using expired cache entry",
				"count", len(cached.Value))
			return cached.Value
		}
		if res.Failed() {
			return nil
		}
	}

	codes := make([]string, 0, len(res.Data))
	for _, raw := range res.Data {
		if c := money.Normalize(raw); c.IsValid() && !slices.Contains(codes, string(c)) {
			codes = append(codes, string(c))
		}
	}
	if err := e.cache.SetEnabledCurrencies(ctx, Entry[[]string]{Value: codes, StoredAt: e.now()}); err != nil {
		e.logger.Warn("Enabled currencies cache write failed", "error", err)
	}
	return codes
}

// Invalidate drops both cached entries.
func (e *Engine) Invalidate(ctx context.Context) error {
	e.group.Forget("shop")
	e.group.Forget("enabled")
	return e.cache.Invalidate(ctx)
}

// Fallback returns the hard-coded fallback currency.
func (e *Engine) Fallback() string { return e.cfg.Fallback }
