package rng

import (
	"math"
	"testing"
)

func TestGenerateInt(t *testing.T) {
	s := New()

	t.Run("GeneratesWithinRange", func(t *testing.T) {
		for _, max := range []int64{2, 10, 100, 1000, 10000} {
			for i := 0; i < 1000; i++ {
				n, err := s.GenerateInt(max)
				if err != nil {
					t.Fatalf("Failed to generate int: %v", err)
				}
				if n < 0 || n >= max {
					t.Errorf("Generated value %d out of range [0, %d)", n, max)
				}
			}
		}
	})

	t.Run("RejectsZeroOrNegative", func(t *testing.T) {
		_, err := s.GenerateInt(0)
		if err == nil {
			t.Error("Expected error for max=0")
		}

		_, err = s.GenerateInt(-1)
		if err == nil {
			t.Error("Expected error for max=-1")
		}
	})

	t.Run("UniformDistribution", func(t *testing.T) {
		const max = 10
		const samples = 100000
		counts := make([]int, max)

		for i := 0; i < samples; i++ {
			n, err := s.GenerateInt(max)
			if err != nil {
				t.Fatalf("Failed to generate int: %v", err)
			}
			counts[n]++
		}

		// Chi-square test
		expected := float64(samples) / float64(max)
		var chiSquare float64
		for _, count := range counts {
			diff := float64(count) - expected
			chiSquare += (diff * diff) / expected
		}

		// Critical value for 9 DOF at 99% confidence is ~21.67
		if chiSquare > 25 {
			t.Errorf("Chi-square test failed: %f (expected < 25)", chiSquare)
		}
	})
}

func TestGenerateFloat(t *testing.T) {
	s := New()

	t.Run("GeneratesWithinRange", func(t *testing.T) {
		for i := 0; i < 10000; i++ {
			f, err := s.GenerateFloat()
			if err != nil {
				t.Fatalf("Failed to generate float: %v", err)
			}
			if f < 0.0 || f >= 1.0 {
				t.Errorf("Generated value %f out of range [0.0, 1.0)", f)
			}
		}
	})

	t.Run("HasGoodPrecision", func(t *testing.T) {
		// Check that we get fine-grained values, not just coarse buckets
		seen := make(map[float64]bool)
		for i := 0; i < 1000; i++ {
			f, _ := s.GenerateFloat()
			seen[f] = true
		}

		if len(seen) < 990 {
			t.Errorf("Expected near-unique values, got %d unique out of 1000", len(seen))
		}
	})
}

func TestShuffle(t *testing.T) {
	s := New()

	t.Run("PreservesElements", func(t *testing.T) {
		original := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
		shuffled := make([]int, len(original))
		copy(shuffled, original)

		if err := s.Shuffle(shuffled); err != nil {
			t.Fatalf("Failed to shuffle: %v", err)
		}

		seen := make(map[int]bool)
		for _, v := range shuffled {
			if seen[v] {
				t.Error("Duplicate element after shuffle")
			}
			seen[v] = true
		}

		for _, v := range original {
			if !seen[v] {
				t.Errorf("Element %d missing after shuffle", v)
			}
		}
	})

	t.Run("ActuallyShuffles", func(t *testing.T) {
		original := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
		differentCount := 0

		for i := 0; i < 100; i++ {
			shuffled := make([]int, len(original))
			copy(shuffled, original)
			s.Shuffle(shuffled)

			different := false
			for j := range original {
				if original[j] != shuffled[j] {
					different = true
					break
				}
			}
			if different {
				differentCount++
			}
		}

		// Probability of an unchanged order is 1/10!
		if differentCount < 99 {
			t.Errorf("Shuffle produced identical order too often: %d/100 were different", differentCount)
		}
	})
}

func TestSelectWeighted(t *testing.T) {
	s := New()

	t.Run("SelectsWithinBounds", func(t *testing.T) {
		weights := []float64{1.0, 2.0, 3.0, 4.0}
		for i := 0; i < 1000; i++ {
			idx, err := s.SelectWeighted(weights)
			if err != nil {
				t.Fatalf("Failed weighted selection: %v", err)
			}
			if idx < 0 || idx >= len(weights) {
				t.Errorf("Selected index %d out of bounds", idx)
			}
		}
	})

	t.Run("RespectsWeights", func(t *testing.T) {
		weights := []float64{9.0, 1.0}
		counts := make([]int, 2)

		for i := 0; i < 10000; i++ {
			idx, _ := s.SelectWeighted(weights)
			counts[idx]++
		}

		// First element should be selected ~90% of the time
		ratio := float64(counts[0]) / float64(counts[0]+counts[1])
		if ratio < 0.85 || ratio > 0.95 {
			t.Errorf("Weight distribution off: expected ~0.9, got %f", ratio)
		}
	})

	t.Run("RejectsEmptyWeights", func(t *testing.T) {
		_, err := s.SelectWeighted([]float64{})
		if err == nil {
			t.Error("Expected error for empty weights")
		}
	})

	t.Run("RejectsNegativeWeight", func(t *testing.T) {
		_, err := s.SelectWeighted([]float64{1.0, -1.0, 1.0})
		if err == nil {
			t.Error("Expected error for negative weight")
		}
	})
}

func TestSelectWeightedInts(t *testing.T) {
	s := New()

	t.Run("RespectsWeights", func(t *testing.T) {
		weights := []int{8, 2}
		counts := make([]int, 2)

		for i := 0; i < 10000; i++ {
			idx, err := s.SelectWeightedInts(weights)
			if err != nil {
				t.Fatalf("Failed weighted selection: %v", err)
			}
			counts[idx]++
		}

		ratio := float64(counts[0]) / float64(counts[0]+counts[1])
		if ratio < 0.75 || ratio > 0.85 {
			t.Errorf("Weight distribution off: expected ~0.8, got %f", ratio)
		}
	})

	t.Run("SkipsZeroWeight", func(t *testing.T) {
		weights := []int{0, 5, 0}
		for i := 0; i < 100; i++ {
			idx, err := s.SelectWeightedInts(weights)
			if err != nil {
				t.Fatalf("Failed with zero weight: %v", err)
			}
			if idx != 1 {
				t.Errorf("Should only select index 1, got %d", idx)
			}
		}
	})

	t.Run("RejectsAllZero", func(t *testing.T) {
		if _, err := s.SelectWeightedInts([]int{0, 0}); err == nil {
			t.Error("Expected error for zero total weight")
		}
	})
}

func TestHealthCheck(t *testing.T) {
	s := New()

	result, err := s.HealthCheck()
	if err != nil {
		t.Fatalf("Health check error: %v", err)
	}

	if !result.Healthy {
		t.Error("RNG reported unhealthy")
	}

	if !result.ChiSquarePassed {
		t.Errorf("Chi-square test failed with value %f", result.ChiSquare)
	}
}

func TestChiSquareTest(t *testing.T) {
	s := New()

	t.Run("PassesForUniformData", func(t *testing.T) {
		samples := make([]int64, 10000)
		for i := 0; i < len(samples); i++ {
			samples[i], _ = s.GenerateInt(100)
		}

		chiSquare, passed := s.chiSquareTest(samples, 100)
		if !passed {
			t.Errorf("Chi-square test failed for uniform RNG data: %f", chiSquare)
		}
	})

	t.Run("FailsForBiasedData", func(t *testing.T) {
		samples := make([]int64, 10000)
		for i := 0; i < len(samples); i++ {
			samples[i] = 0 // All same value
		}

		_, passed := s.chiSquareTest(samples, 100)
		if passed {
			t.Error("Chi-square test should fail for heavily biased data")
		}
	})
}

func BenchmarkGenerateInt(b *testing.B) {
	s := New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.GenerateInt(1000)
	}
}

func BenchmarkSelectWeightedInts(b *testing.B) {
	s := New()
	weights := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.SelectWeightedInts(weights)
	}
}

// Statistical tests to verify RNG quality
func TestStatisticalQuality(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping statistical tests in short mode")
	}

	s := New()

	t.Run("MeanAndVariance", func(t *testing.T) {
		const samples = 100000
		const max = 100
		var sum, sumSq float64

		for i := 0; i < samples; i++ {
			n, _ := s.GenerateInt(max)
			sum += float64(n)
			sumSq += float64(n * n)
		}

		mean := sum / float64(samples)
		variance := (sumSq / float64(samples)) - (mean * mean)

		// Expected mean for uniform [0, 100) is 49.5
		expectedMean := float64(max-1) / 2.0
		if math.Abs(mean-expectedMean) > 0.5 {
			t.Errorf("Mean deviation too large: got %f, expected ~%f", mean, expectedMean)
		}

		// Expected variance for uniform [0, 100) is (100^2 - 1) / 12 ≈ 833.25
		expectedVariance := float64(max*max-1) / 12.0
		if math.Abs(variance-expectedVariance) > 20 {
			t.Errorf("Variance deviation too large: got %f, expected ~%f", variance, expectedVariance)
		}
	})
}
