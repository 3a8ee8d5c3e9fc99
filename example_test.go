package dfpwm_test

import (
	"fmt"

	"github.com/cwbudde/dfpwm"
)

func ExampleEncoder_Encode() {
	enc := dfpwm.NewEncoder(dfpwm.ModeCurrent)

	out := enc.Encode([]int8{10, 20, 30, 40, 50, 60, 70, 80})
	fmt.Printf("% X\n", out)
	fmt.Printf("%+v\n", enc.State())
	// Output:
	// FF
	// {Level:10 Response:15 LastBit:true}
}

func ExampleEncoder_Encode_chunks() {
	enc := dfpwm.NewEncoder(dfpwm.ModeCurrent)

	// chunks of one asset share the encoder
	first := enc.Encode([]int8{0, 0, 0, 0, 0, 0, 0, 0})
	second := enc.Encode([]int8{127, 127, 127, 127, 127, 127, 127, 127})

	fmt.Printf("% X | % X\n", first, second)
	// Output: AA | FF
}
