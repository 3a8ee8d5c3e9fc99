package dfpwm

const (
	levelMax = 127
	levelMin = -128
	// response adaptation uses 8 fractional bits regardless of Precision.
	responseRound = 128
	responseShift = 8
)

// State is the predictor state of an encoding session. The zero value is a
// freshly started session.
type State struct {
	// Level is the predicted signal value.
	Level int
	// Response is the adaptive step size, in 1/2^Precision units.
	Response int
	LastBit  bool
}

// Encoder converts signed 8-bit samples into a DFPWM bit stream.
//
// An Encoder is not safe for concurrent use. Output depends on every sample
// encoded before, so all chunks of one asset must go through the same
// Encoder in order.
type Encoder struct {
	mode   Mode
	params Params
	state  State
}

// NewEncoder creates an encoder for mode with a fresh state.
func NewEncoder(mode Mode) *Encoder {
	return &Encoder{
		mode:   mode,
		params: mode.Params(),
	}
}

// Mode returns the mode the encoder was created with.
func (e *Encoder) Mode() Mode {
	return e.mode
}

// State returns a copy of the current predictor state.
func (e *Encoder) State() State {
	return e.state
}

// Reset discards the predictor state, starting a new session.
func (e *Encoder) Reset() {
	e.state = State{}
}

// EncodedLen returns the number of bytes produced for n samples.
func EncodedLen(n int) int {
	return n / 8
}

// Encode encodes samples and returns EncodedLen(len(samples)) bytes.
// Trailing samples that don't fill a byte are dropped; they are not carried
// over into the next call.
func (e *Encoder) Encode(samples []int8) []byte {
	return appendEncode(e, make([]byte, 0, EncodedLen(len(samples))), samples)
}

// AppendEncode encodes samples and appends the result to dst.
func (e *Encoder) AppendEncode(dst []byte, samples []int8) []byte {
	return appendEncode(e, dst, samples)
}

// EncodeBytes encodes raw signed 8-bit PCM, one byte per sample in two's
// complement, as written by decoders emitting the "s8" format.
func (e *Encoder) EncodeBytes(pcm []byte) []byte {
	return appendEncode(e, make([]byte, 0, EncodedLen(len(pcm))), pcm)
}

func appendEncode[T int8 | byte](e *Encoder, dst []byte, samples []T) []byte {
	n := len(samples) - len(samples)%8

	for i := 0; i < n; i += 8 {
		var acc byte

		// the first decided bit ends up in the least significant position
		for _, s := range samples[i : i+8] {
			bit := e.decide(int(int8(s)))

			acc >>= 1
			if bit {
				acc |= 0x80
			}

			e.update(bit)
		}

		dst = append(dst, acc)
	}

	return dst
}

// decide returns the bit for sample. A tie at the ceiling resolves to true so
// the level can't lock at 127.
func (e *Encoder) decide(sample int) bool {
	level := e.state.Level
	return sample > level || (sample == level && level == levelMax)
}

func (e *Encoder) update(bit bool) {
	p := e.params
	st := e.state

	target := levelMin
	if bit {
		target = levelMax
	}

	// >> on int is arithmetic in Go, negative values round towards -inf.
	level := st.Level + ((st.Response*(target-st.Level) + (1 << (p.Precision - 1))) >> p.Precision)
	if level == st.Level && st.Level != target {
		if bit {
			level++
		} else {
			level--
		}
	}

	sameBit := bit == st.LastBit

	respTarget, respDelta := 0, p.Decrement
	if sameBit {
		respTarget, respDelta = (1<<p.Precision)-1, p.Increment
	}

	response := st.Response
	if p.AdaptsResponse {
		response += (respDelta*(respTarget-st.Response) + responseRound) >> responseShift
	}

	if response == st.Response && st.Response != respTarget {
		if sameBit {
			response++
		} else {
			response--
		}
	}

	if p.Precision > 8 {
		response = max(response, 2<<(p.Precision-8))
	}

	e.state = State{
		Level:    level,
		Response: response,
		LastBit:  bit,
	}
}
