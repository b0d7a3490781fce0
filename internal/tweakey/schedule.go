// Package tweakey implements the Deoxys-BC-256 tweakey schedule and the
// per-branch key derivation used by the ButterKnife construction: 16
// round tweakeys derived from a 128-bit tweak and a 128-bit key, plus an
// XOR-based branch differentiation step applied on top of a chosen round
// tweakey.
package tweakey

import "github.com/butterknife/butterknife/internal/aesround"

// Rounds is the number of round tweakeys produced by a schedule.
const Rounds = 16

// c0 is the fixed row constant XORed into column 0 of every round tweakey.
var c0 = [4]byte{0x01, 0x02, 0x04, 0x08}

// rcon holds the round constants XORed into column 1. Only indices 0..15
// are ever consumed; index 16 (0x72) is a dead entry carried over from
// the reference table and must not be mistaken for an extra round.
var rcon = [17]byte{
	0x2f, 0x5e, 0xbc, 0x63, 0xc6, 0x97, 0x35, 0x6a,
	0xd4, 0xb3, 0x7d, 0xfa, 0xef, 0xc5, 0x91, 0x39,
	0x72,
}

// perm is the H permutation: new[perm[i]] = old[i].
var perm = [16]int{1, 6, 11, 12, 5, 10, 15, 0, 9, 14, 3, 4, 13, 2, 7, 8}

// Schedule is the ordered sequence of 16 round tweakeys produced in one
// forward pass from (tweak, key). It is immutable once constructed.
type Schedule [Rounds]aesround.Block

// New derives the full round tweakey schedule from a 128-bit tweak (TK1)
// and a 128-bit key (TK2), per the Deoxys-BC-256 rules: each round
// tweakey assembles TK1 XOR TK2 XOR fixed constants into columns 0 and
// 1, and columns 2-3 unchanged; TK1 and TK2 are then each passed through
// the H permutation, and TK1 alone through the G (alpha=2) LFSR, to
// produce the tweakey halves for the next round.
func New(tweak, key [16]byte) Schedule {
	tk1, tk2 := tweak, key

	var sched Schedule
	for r := 0; r < Rounds; r++ {
		var rt aesround.Block
		for row := 0; row < 4; row++ {
			rt[row] = tk1[row] ^ tk2[row] ^ c0[row]
		}
		for row := 0; row < 4; row++ {
			rt[4+row] = tk1[4+row] ^ tk2[4+row] ^ rcon[r]
		}
		for i := 8; i < 16; i++ {
			rt[i] = tk1[i] ^ tk2[i]
		}
		sched[r] = rt

		tk1 = permuteH(tk1)
		tk2 = permuteH(tk2)
		tk1 = lfsrG(tk1)
	}
	return sched
}

func permuteH(b [16]byte) [16]byte {
	var out [16]byte
	for i, v := range b {
		out[perm[i]] = v
	}
	return out
}

// lfsrG applies the alpha=2 LFSR to every byte of TK1. TK2 carries
// alpha=1, which is the identity map for this 8-bit LFSR instantiation
// and so needs no corresponding function.
func lfsrG(b [16]byte) [16]byte {
	var out [16]byte
	for i, v := range b {
		out[i] = ((v << 1) | (((v & 0x20) >> 5) ^ ((v & 0x80) >> 7))) & 0xff
	}
	return out
}

// BranchKey XOR-injects branch index i (1..8) into column 2 of
// roundTweakey, producing the branch-specific round key. Branch 0 is
// never produced; output branch slot k uses BranchKey(rt, k+1).
func BranchKey(roundTweakey aesround.Block, i int) aesround.Block {
	out := roundTweakey
	for row := 0; row < 4; row++ {
		out[8+row] ^= byte(i)
	}
	return out
}
