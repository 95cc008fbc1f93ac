package audio

// Conversion helpers used by file-backed sources to bring arbitrary WAV
// material into the pipeline's native format (44100 Hz mono int16).
// Live capture sources open the device in the native format directly and
// never need these.

// StereoToMono averages interleaved L/R sample pairs into mono. Uses int32
// arithmetic to avoid overflow and clamps to the int16 range. An odd
// trailing sample is dropped.
func StereoToMono(samples []int16) []int16 {
	pairs := len(samples) / 2
	out := make([]int16, pairs)
	for i := range pairs {
		avg := (int32(samples[i*2]) + int32(samples[i*2+1])) / 2
		if avg > 32767 {
			avg = 32767
		} else if avg < -32768 {
			avg = -32768
		}
		out[i] = int16(avg)
	}
	return out
}

// ResampleMono resamples mono samples from srcRate to dstRate using linear
// interpolation. If the rates match (or either is non-positive) the input
// is returned unchanged. Linear interpolation is plenty for pitch analysis:
// the fundamental band of interest tops out near 400 Hz, far below the
// Nyquist limit at the rates involved.
func ResampleMono(samples []int16, srcRate, dstRate int) []int16 {
	if srcRate <= 0 || dstRate <= 0 || srcRate == dstRate || len(samples) < 2 {
		return samples
	}
	dstLen := int(int64(len(samples)) * int64(dstRate) / int64(srcRate))
	if dstLen == 0 {
		return nil
	}

	out := make([]int16, dstLen)
	ratio := float64(srcRate) / float64(dstRate)
	for i := range dstLen {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		frac := srcPos - float64(srcIdx)

		s0 := samples[srcIdx]
		s1 := s0
		if srcIdx+1 < len(samples) {
			s1 = samples[srcIdx+1]
		}
		out[i] = int16(float64(s0)*(1-frac) + float64(s1)*frac)
	}
	return out
}
