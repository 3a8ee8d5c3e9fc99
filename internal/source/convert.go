package source

import "math"

// intToSample scales a signed integer sample of the given bit depth to 8 bits.
// The arithmetic shift matches the integer conversion ffmpeg applies.
func intToSample(value, bitDepth int) int8 {
	if bitDepth <= 8 {
		// 8-bit AIFF data may come back either signed or as raw bytes
		if value > math.MaxInt8 {
			value -= 256
		}

		return int8(value)
	}

	return int8(value >> (bitDepth - 8))
}

// unsignedToSample converts unsigned 8-bit PCM (WAV) to signed.
func unsignedToSample(value int) int8 {
	return int8(value - 128)
}

// floatToSample scales a float sample in [-1, 1] to 8 bits, clipping.
func floatToSample(value float64) int8 {
	if math.IsNaN(value) {
		return 0
	}

	scaled := math.RoundToEven(value * 128)
	if scaled > math.MaxInt8 {
		return math.MaxInt8
	}

	if scaled < math.MinInt8 {
		return math.MinInt8
	}

	return int8(scaled)
}

// downmix averages the channels of one interleaved frame.
func downmix(frame []int) int {
	if len(frame) == 1 {
		return frame[0]
	}

	sum := 0
	for _, v := range frame {
		sum += v
	}

	return sum / len(frame)
}
