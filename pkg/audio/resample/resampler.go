// ABOUTME: Simple linear resampler for converting audio sample rates
// ABOUTME: Used to convert decoded buffers to the output device's sample rate
package resample

import "github.com/Resonate-Protocol/waveview/pkg/audio"

// Resampler performs linear interpolation to convert between sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	position   float64
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
		position:   0.0,
	}
}

// Resample converts input samples to output sample rate using linear interpolation
// input: interleaved samples at inputRate
// output: interleaved samples at outputRate
func (r *Resampler) Resample(input []float32, output []float32) int {
	if len(input) == 0 {
		return 0
	}

	inputFrames := len(input) / r.channels
	outputFrames := len(output) / r.channels

	outIdx := 0

	for outIdx < outputFrames {
		inputIdx := int(r.position)

		// If we've consumed all input, stop
		if inputIdx >= inputFrames-1 {
			break
		}

		frac := float32(r.position - float64(inputIdx))

		for ch := 0; ch < r.channels; ch++ {
			sample1 := input[inputIdx*r.channels+ch]
			sample2 := input[(inputIdx+1)*r.channels+ch]
			output[outIdx*r.channels+ch] = sample1*(1-frac) + sample2*frac
		}

		outIdx++
		r.position += r.ratio
	}

	// Reset position for next chunk, keeping fractional part
	r.position -= float64(int(r.position))

	return outIdx * r.channels
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 0.0
}

// OutputSamplesNeeded calculates how many output samples will be produced from input samples
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	outputFrames := int(float64(inputFrames) / r.ratio)
	return outputFrames * r.channels
}

// Buffer converts a whole buffer to outputRate. The input is returned unchanged when
// the rates already match.
func Buffer(buf *audio.Buffer, outputRate int) *audio.Buffer {
	if buf == nil || outputRate <= 0 || buf.SampleRate == outputRate || buf.SampleRate <= 0 {
		return buf
	}

	out := &audio.Buffer{SampleRate: outputRate, Channels: make([][]float32, buf.NumChannels())}
	for ch, plane := range buf.Channels {
		r := New(buf.SampleRate, outputRate, 1)
		// One extra slot so the last interpolated frame is never cut short
		dst := make([]float32, r.OutputSamplesNeeded(len(plane))+1)
		n := r.Resample(plane, dst)
		out.Channels[ch] = dst[:n]
	}
	return out
}
