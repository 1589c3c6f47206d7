package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateService(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validatePoller(); err != nil {
		return err
	}
	if err := c.validateAssets(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateService() error {
	parsed, err := url.Parse(c.Service.BaseURL)
	if err != nil {
		return fmt.Errorf("service.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("service.base_url must use http or https, got %q", c.Service.BaseURL)
	}
	if parsed.Host == "" {
		return errors.New("service.base_url must include a host")
	}
	if err := ensureMinimumMap(minTimeoutSeconds, map[string]int{
		"service.timeout_seconds":      c.Service.TimeoutSeconds,
		"service.long_timeout_seconds": c.Service.LongTimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.Service.LongTimeoutSeconds < c.Service.TimeoutSeconds {
		return errors.New("service.long_timeout_seconds must be at least service.timeout_seconds")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.AdvanceDelayMsec < 0 || c.Workflow.AdvanceDelayMsec > maxAdvanceDelayMsec {
		return fmt.Errorf("workflow.advance_delay_ms must be between 0 and %d", maxAdvanceDelayMsec)
	}
	return nil
}

func (c *Config) validatePoller() error {
	if c.Poller.IntervalSeconds <= 0 || c.Poller.IntervalSeconds > maxPollIntervalSeconds {
		return fmt.Errorf("poller.interval_seconds must be between 1 and %d", maxPollIntervalSeconds)
	}
	if c.Poller.TransportRetries < 0 || c.Poller.TransportRetries > maxTransportRetries {
		return fmt.Errorf("poller.transport_retries must be between 0 and %d", maxTransportRetries)
	}
	return nil
}

func (c *Config) validateAssets() error {
	if !slices.Contains(AssetSources, c.Assets.DefaultSource) {
		return fmt.Errorf("assets.default_source must be one of %s, got %q", strings.Join(AssetSources, ", "), c.Assets.DefaultSource)
	}
	if c.Assets.MaxConcurrent < 0 {
		return errors.New("assets.max_concurrent must be >= 0 (0 means unbounded)")
	}
	return nil
}

func ensureMinimumMap(minimum int, values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		if values[key] < minimum {
			return fmt.Errorf("%s must be at least %d", key, minimum)
		}
	}
	return nil
}

// IsAssetSource reports whether source names a known footage provider.
func IsAssetSource(source string) bool {
	return slices.Contains(AssetSources, strings.ToLower(strings.TrimSpace(source)))
}
