// Package butterknife implements the ButterKnife tweakable pseudorandom
// function: a masked Iterate-Fork-Iterate (mIFI) construction over the
// Deoxys-BC-256 tweakey schedule, expanding a 128-bit message block under
// a 128-bit tweak and a 128-bit key into eight independent 128-bit
// branches (1024 bits total).
//
// Eval is the entire public surface: a single, pure, infallible
// transformation. There is no streaming API, no variable output length,
// and no precomputed keyed-context object — the schedule is derived
// fresh on every call.
package butterknife

import (
	"github.com/butterknife/butterknife/internal/aesround"
	"github.com/butterknife/butterknife/internal/tweakey"
)

// Branches is the number of parallel post-fork tails, and the number of
// 128-bit output blocks.
const Branches = 8

// trunkRounds is the number of full AES rounds driven by round tweakeys
// 1..6 before the trunk's zero-key closing round.
const trunkRounds = 6

// branchRounds is the number of full AES rounds driven by round tweakeys
// 8..14 before each branch's zero-key closing round.
const branchRounds = 7

// Eval expands message under tweak and key into 128 bytes, arranged as
// eight 128-bit branches (output[16*i : 16*i+16] is branch i). The
// schedule depends only on (tweak, key); message never influences any
// round key.
func Eval(message, tweak, key [16]byte) [128]byte {
	sched := tweakey.New(tweak, key)

	state := aesround.Block(message)
	state = aesround.Whiten(state, sched[0])
	for r := 1; r <= trunkRounds; r++ {
		state = aesround.Round(state, sched[r])
	}
	state = aesround.Round(state, aesround.Block{}) // trunk closing round, zero key

	fork := state

	var branch [Branches]aesround.Block
	for i := range branch {
		branch[i] = aesround.Whiten(fork, tweakey.BranchKey(sched[7], i+1))
	}

	for r := 1; r <= branchRounds; r++ {
		rt := sched[7+r]
		for i := range branch {
			branch[i] = aesround.Round(branch[i], tweakey.BranchKey(rt, i+1))
		}
	}

	for i := range branch {
		branch[i] = aesround.Round(branch[i], aesround.Block{}) // branch closing round, zero key
	}

	var out [128]byte
	for i := range branch {
		mask := tweakey.BranchKey(sched[tweakey.Rounds-1], i+1)
		for b := 0; b < 16; b++ {
			out[16*i+b] = branch[i][b] ^ mask[b] ^ fork[b]
		}
	}
	return out
}
