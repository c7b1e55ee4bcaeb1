package buffer_test

import (
	"fmt"

	"github.com/cwbudde/algo-accel/dsp/buffer"
)

func ExampleManager() {
	m := buffer.NewManager()

	b, err := m.Allocate(5)
	if err != nil {
		panic(err)
	}
	buffer.FillSequential(b)
	fmt.Println(b.Samples())
	fmt.Println(m.Live())

	m.Release(b)
	fmt.Println(m.Live())

	// Output:
	// [1 2 3 4 5]
	// 1
	// 0
}
