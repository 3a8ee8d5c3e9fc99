// Package dfpwm provides a DFPWM (Dynamic Filter Pulse Width Modulation)
// encoder for Go.
//
// DFPWM packs one decision bit per input sample: the encoder tracks a
// predicted signal level and an adaptive step size ("response"), and each
// bit records whether the next sample lies above the prediction. Input is
// signed 8-bit mono PCM; output is one byte per eight samples.
//
// Two parameter sets are supported:
//
//   - ModeCurrent (DFPWM1a): 10-bit response precision, response steps by one.
//   - ModeLegacy (DFPWM1): 8-bit precision, proportional response adaptation.
//
// An Encoder owns its predictor state. Feed every chunk of one asset through
// the same Encoder, in order; the state carries across calls. Use a new
// Encoder (or Reset) for each independent asset.
package dfpwm
