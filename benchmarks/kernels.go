package benchmarks

import (
	"fmt"

	"github.com/sarchlab/simtsim/emu"
	"github.com/sarchlab/simtsim/insts"
	"github.com/sarchlab/simtsim/loader"
)

// GetKernels returns the standard set of benchmark kernels. Each kernel
// exercises a different part of the device.
func GetKernels() []Benchmark {
	return []Benchmark{
		matrixAdd(),
		matrixMultiply2x2(),
		maskedAdd(),
		storeLoadRoundTrip(),
		uniformLoop(),
		divide(),
	}
}

// GetCoreBenchmarks returns the three kernels used for quick validation:
// matrix add, matrix multiply and a partial launch.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		matrixAdd(),
		matrixMultiply2x2(),
		maskedAdd(),
	}
}

// Lookup returns the kernel with the given name.
func Lookup(name string) (Benchmark, error) {
	for _, b := range GetKernels() {
		if b.Name == name {
			return b, nil
		}
	}
	return Benchmark{}, fmt.Errorf("unknown benchmark %q", name)
}

func mustAssemble(source string) []uint16 {
	words, err := insts.Assemble(source)
	if err != nil {
		panic(fmt.Sprintf("benchmarks: %v", err))
	}
	return words
}

func seedVectors(data *emu.Memory) {
	for i := 0; i < 8; i++ {
		data.Write(uint8(i), uint16(i))   // A
		data.Write(uint8(8+i), uint16(i)) // B
	}
}

// matrixAddProgram computes C[i] = A[i] + B[i] with A at 0, B at 8, C at 16.
func matrixAddProgram() []uint16 {
	return []uint16{
		insts.EncodeMUL(0, insts.RegBlockIdx, insts.RegBlockDim),
		insts.EncodeADD(0, 0, insts.RegThreadIdx), // i
		insts.EncodeCONST(1, 0),                   // baseA
		insts.EncodeCONST(2, 8),                   // baseB
		insts.EncodeCONST(3, 16),                  // baseC
		insts.EncodeADD(4, 1, 0),
		insts.EncodeLDR(4, 4), // A[i]
		insts.EncodeADD(5, 2, 0),
		insts.EncodeLDR(5, 5), // B[i]
		insts.EncodeADD(6, 4, 5),
		insts.EncodeADD(7, 3, 0),
		insts.EncodeSTR(7, 6),
		insts.EncodeRET(),
	}
}

// 1. Matrix Add - one thread per element, two blocks on the default device
func matrixAdd() Benchmark {
	return Benchmark{
		Name:        "matadd",
		Description: "C[i] = A[i] + B[i] over 8 elements - loads, stores and block indexing",
		Threads:     8,
		Setup:       seedVectors,
		Program:     matrixAddProgram(),
		Expect: []loader.Expectation{
			{Addr: 16, Values: []uint16{0, 2, 4, 6, 8, 10, 12, 14}},
		},
	}
}

// 2. Matrix Multiply - 2x2 product with an accumulation loop
func matrixMultiply2x2() Benchmark {
	return Benchmark{
		Name:        "matmul",
		Description: "2x2 matrix product - division, modulo and a counted loop",
		Threads:     4,
		Setup: func(data *emu.Memory) {
			data.Load([]uint16{1, 2, 3, 4, 1, 2, 3, 4})
		},
		Program: mustAssemble(`
			CONST R8, #1                   ; increment
			CONST R9, #2                   ; N
			CONST R0, #0                   ; baseA
			CONST R1, #4                   ; baseB
			CONST R2, #8                   ; baseC
			MUL R3, %blockIdx, %blockDim
			ADD R3, R3, %threadIdx         ; i
			DIV R4, R3, R9                 ; row = i / N
			MUL R5, R4, R9
			SUB R5, R3, R5                 ; col = i % N
			CONST R6, #0                   ; acc
			CONST R7, #0                   ; k
		LOOP:
			MUL R10, R4, R9
			ADD R10, R10, R7
			ADD R10, R10, R0               ; A[row * N + k]
			LDR R10, R10
			MUL R11, R7, R9
			ADD R11, R11, R5
			ADD R11, R11, R1               ; B[k * N + col]
			LDR R11, R11
			MUL R12, R10, R11
			ADD R6, R6, R12
			ADD R7, R7, R8
			CMP R7, R9
			BRn LOOP                       ; while k < N
			ADD R9, R2, R3
			STR R9, R6
			RET
		`),
		Expect: []loader.Expectation{
			{Addr: 8, Values: []uint16{7, 10, 15, 22}},
		},
	}
}

// 3. Masked Add - a launch that does not fill its last block
func maskedAdd() Benchmark {
	return Benchmark{
		Name:        "masked",
		Description: "matadd with 5 threads - lanes past the launch stay idle",
		Threads:     5,
		Setup:       seedVectors,
		Program:     matrixAddProgram(),
		Expect: []loader.Expectation{
			{Addr: 16, Values: []uint16{0, 2, 4, 6, 8, 0, 0, 0}},
		},
	}
}

// 4. Store/Load Round Trip - a stored word reads back unchanged
func storeLoadRoundTrip() Benchmark {
	return Benchmark{
		Name:        "roundtrip",
		Description: "store 100+i, load it back and copy it - write then read ordering",
		Threads:     8,
		Program: mustAssemble(`
			MUL R4, %blockIdx, %blockDim
			ADD R4, R4, %threadIdx
			CONST R0, #32
			ADD R0, R0, R4                 ; 32 + i
			CONST R1, #100
			ADD R1, R1, R4
			STR R0, R1
			LDR R2, R0
			CONST R3, #16
			ADD R3, R0, R3                 ; 48 + i
			STR R3, R2
			RET
		`),
		Expect: []loader.Expectation{
			{Addr: 32, Values: []uint16{100, 101, 102, 103, 104, 105, 106, 107}},
			{Addr: 48, Values: []uint16{100, 101, 102, 103, 104, 105, 106, 107}},
		},
	}
}

// 5. Uniform Loop - every thread takes the same backward branch
func uniformLoop() Benchmark {
	return Benchmark{
		Name:        "loop",
		Description: "sum 1..5 in a loop, plus the thread index - branch and flag latching",
		Threads:     8,
		Program: mustAssemble(`
			CONST R0, #0                   ; sum
			CONST R1, #0                   ; k
			CONST R2, #1
			CONST R3, #5
		LOOP:
			ADD R1, R1, R2
			ADD R0, R0, R1
			CMP R1, R3
			BRn LOOP
			MUL R4, %blockIdx, %blockDim
			ADD R4, R4, %threadIdx
			ADD R0, R0, R4
			CONST R5, #64
			ADD R5, R5, R4
			STR R5, R0
			RET
		`),
		Expect: []loader.Expectation{
			{Addr: 64, Values: []uint16{15, 16, 17, 18, 19, 20, 21, 22}},
		},
	}
}

// 6. Divide - truncating division, including division by zero
func divide() Benchmark {
	return Benchmark{
		Name:        "divide",
		Description: "100 / i per thread - division by zero yields 0",
		Threads:     4,
		Program: mustAssemble(`
			MUL R0, %blockIdx, %blockDim
			ADD R0, R0, %threadIdx
			CONST R1, #100
			DIV R2, R1, R0
			CONST R3, #80
			ADD R3, R3, R0
			STR R3, R2
			RET
		`),
		Expect: []loader.Expectation{
			{Addr: 80, Values: []uint16{0, 100, 50, 33}},
		},
	}
}
