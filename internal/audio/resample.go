package audio

// Resample linearly interpolates samples from sourceRate to targetRate.
// Good enough for the gateway's own rate-adaptation needs (it is not the
// inference library's resampler, which has no bearing on model quality);
// a no-op when the rates already match.
func Resample(samples []float32, sourceRate, targetRate int) []float32 {
	if sourceRate == targetRate || len(samples) == 0 {
		return samples
	}

	ratio := float64(targetRate) / float64(sourceRate)
	outLen := int(float64(len(samples)) * ratio)
	if outLen <= 0 {
		return nil
	}

	out := make([]float32, outLen)
	for i := range out {
		srcPos := float64(i) / ratio
		out[i] = interpolate(samples, srcPos)
	}
	return out
}

func interpolate(samples []float32, pos float64) float32 {
	i0 := int(pos)
	if i0 >= len(samples)-1 {
		return samples[len(samples)-1]
	}
	frac := pos - float64(i0)
	return samples[i0] + float32(frac)*(samples[i0+1]-samples[i0])
}
