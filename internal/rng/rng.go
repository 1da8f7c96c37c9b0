// Package rng provides the single Random Source all probability-weighted
// choices route through, so fairness stays auditable in one place.
// Compliant with GLI-19 Chapter 3: RNG Requirements
package rng

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"time"
)

// Service provides cryptographically strong random number generation
// GLI-19 §3.2: General RNG Requirements
// GLI-19 §3.3: RNG Strength and Monitoring
type Service struct {
	entropy io.Reader
	mu      sync.Mutex

	// Statistics for monitoring
	lastHealthCheck  time.Time
	samplesGenerated int64
}

// New creates a new RNG service using crypto/rand
func New() *Service {
	return &Service{
		entropy:         rand.Reader,
		lastHealthCheck: time.Now(),
	}
}

// GenerateInt returns a random integer in range [0, max)
// Uses rejection sampling to eliminate modulo bias (GLI-19 §3.2.3)
func (s *Service) GenerateInt(max int64) (int64, error) {
	if max <= 0 {
		return 0, fmt.Errorf("max must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Reject values >= threshold to keep the distribution uniform
	threshold := uint64(1<<63-1) - (uint64(1<<63-1) % uint64(max))

	for {
		buf := make([]byte, 8)
		if _, err := io.ReadFull(s.entropy, buf); err != nil {
			return 0, fmt.Errorf("failed to generate random int: %w", err)
		}

		n := binary.BigEndian.Uint64(buf) >> 1 // Use 63 bits for positive range

		if n < threshold {
			s.samplesGenerated++
			return int64(n % uint64(max)), nil
		}
		// Reject and retry to avoid modulo bias
	}
}

// Intn returns a random int in range [0, n)
func (s *Service) Intn(n int) (int, error) {
	v, err := s.GenerateInt(int64(n))
	return int(v), err
}

// GenerateFloat returns a random float in range [0.0, 1.0)
func (s *Service) GenerateFloat() (float64, error) {
	n, err := s.GenerateInt(1 << 53) // 53 bits of precision
	if err != nil {
		return 0, err
	}
	return float64(n) / float64(1<<53), nil
}

// Shuffle performs a Fisher-Yates shuffle on a slice of integers
// GLI-19 §3.2.1: Source Code Review for shuffling algorithms
func (s *Service) Shuffle(slice []int) error {
	for i := len(slice) - 1; i > 0; i-- {
		j, err := s.GenerateInt(int64(i + 1))
		if err != nil {
			return err
		}
		slice[i], slice[int(j)] = slice[int(j)], slice[i]
	}
	return nil
}

// SelectWeighted selects an index based on weighted probabilities
// GLI-19 §3.2.3: Distribution - non-uniform distribution support
func (s *Service) SelectWeighted(weights []float64) (int, error) {
	if len(weights) == 0 {
		return 0, fmt.Errorf("weights cannot be empty")
	}

	var total float64
	for _, w := range weights {
		if w < 0 {
			return 0, fmt.Errorf("weights cannot be negative")
		}
		total += w
	}

	if total <= 0 {
		return 0, fmt.Errorf("total weight must be positive")
	}

	r, err := s.GenerateFloat()
	if err != nil {
		return 0, err
	}

	target := r * total

	var cumulative float64
	for i, w := range weights {
		cumulative += w
		if target < cumulative {
			return i, nil
		}
	}

	// Should not reach here, but return last index as fallback
	return len(weights) - 1, nil
}

// SelectWeightedInts selects an index based on integer weights. Entries with
// zero weight are never selected.
func (s *Service) SelectWeightedInts(weights []int) (int, error) {
	if len(weights) == 0 {
		return 0, fmt.Errorf("weights cannot be empty")
	}

	var total int64
	for _, w := range weights {
		if w < 0 {
			return 0, fmt.Errorf("weights cannot be negative")
		}
		total += int64(w)
	}
	if total <= 0 {
		return 0, fmt.Errorf("total weight must be positive")
	}

	target, err := s.GenerateInt(total)
	if err != nil {
		return 0, err
	}

	var cumulative int64
	for i, w := range weights {
		cumulative += int64(w)
		if target < cumulative {
			return i, nil
		}
	}
	return len(weights) - 1, nil
}

// HealthCheck verifies RNG is functioning correctly
// GLI-19 §3.3.3: Dynamic Output Monitoring
func (s *Service) HealthCheck() (*HealthResult, error) {
	s.mu.Lock()
	s.lastHealthCheck = time.Now()
	s.mu.Unlock()

	const sampleSize = 1000
	samples := make([]int64, sampleSize)

	for i := 0; i < sampleSize; i++ {
		n, err := s.GenerateInt(100)
		if err != nil {
			return &HealthResult{
				Healthy:   false,
				Timestamp: time.Now(),
				Error:     err.Error(),
			}, err
		}
		samples[i] = n
	}

	chiSquare, passed := s.chiSquareTest(samples, 100)

	return &HealthResult{
		Healthy:          passed,
		Timestamp:        time.Now(),
		SamplesGenerated: s.samplesGenerated,
		ChiSquare:        chiSquare,
		ChiSquarePassed:  passed,
	}, nil
}

// chiSquareTest performs a basic chi-square test for uniformity
// GLI-19 §3.2.2: Statistical Analysis
func (s *Service) chiSquareTest(samples []int64, bins int) (float64, bool) {
	counts := make([]int, bins)
	for _, sample := range samples {
		counts[int(sample)%bins]++
	}

	expected := float64(len(samples)) / float64(bins)

	var chiSquare float64
	for _, count := range counts {
		diff := float64(count) - expected
		chiSquare += (diff * diff) / expected
	}

	// Critical value for 99 degrees of freedom at 99% confidence
	criticalValue := 134.6
	if bins != 100 {
		criticalValue = float64(bins-1) + 2.576*math.Sqrt(2.0*float64(bins-1))
	}

	return chiSquare, chiSquare < criticalValue
}

// HealthResult contains RNG health check results
type HealthResult struct {
	Healthy          bool      `json:"healthy"`
	Timestamp        time.Time `json:"timestamp"`
	SamplesGenerated int64     `json:"samples_generated"`
	ChiSquare        float64   `json:"chi_square"`
	ChiSquarePassed  bool      `json:"chi_square_passed"`
	Error            string    `json:"error,omitempty"`
}
