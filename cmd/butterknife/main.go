// Command butterknife is a reference front-end for the ButterKnife
// construction: it prints the hex-encoded output branches and their
// pairwise Hamming distances for a given (message, tweak, key), and can
// run the construction's self-test suite. It is not part of the core
// specification — the core's only interface is butterknife.Eval.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"math/bits"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	butterknife "github.com/butterknife/butterknife"
	"github.com/butterknife/butterknife/internal/cpuinfo"
	"github.com/butterknife/butterknife/internal/resultcache"
	"github.com/butterknife/butterknife/internal/selftest"
)

var logger = log.New(os.Stderr, "butterknife: ", 0)

func main() {
	os.Exit(main1())
}

// main1 runs the CLI and returns a process exit code. It is split out
// from main so the testscript-driven integration test can invoke it
// in-process via testscript.RunMain.
func main1() int {
	if err := run(os.Args[1:]); err != nil {
		logger.Println(err)
		return 1
	}
	return 0
}

func run(args []string) error {
	fs := flag.NewFlagSet("butterknife", flag.ContinueOnError)
	message := fs.String("message", "00000000000000000000000000000000", "16-byte message, hex-encoded")
	tweak := fs.String("tweak", "00000000000000000000000000000000", "16-byte tweak, hex-encoded")
	key := fs.String("key", "00000000000000000000000000000000", "16-byte key, hex-encoded")
	useRandom := fs.Bool("rand", false, "fill message/tweak/key with crypto/rand instead of the hex flags")
	runSelfTest := fs.Bool("selftest", false, "run the known-answer and statistical self-test suite and exit")
	workers := fs.Int("workers", 1, "goroutines for the batch-eval throughput demo (1 disables the demo)")
	cachePath := fs.String("cache", defaultCachePath(), "path to the encrypted self-test report cache")

	if err := fs.Parse(args); err != nil {
		return err
	}

	caps := cpuinfo.Detect()
	fmt.Fprintf(os.Stdout, "cpu: arch=%s aes-ni=%v arm-crypto-ext=%v\n", caps.Architecture, caps.HasAESNI, caps.HasARMCrypto)

	if *runSelfTest {
		return runSelfTestCmd(*cachePath)
	}

	m, t, k, err := resolveInputs(*message, *tweak, *key, *useRandom)
	if err != nil {
		return fmt.Errorf("resolve inputs: %w", err)
	}

	out := butterknife.Eval(m, t, k)
	printReport(out)

	if *workers > 1 {
		return runBatchDemo(*workers)
	}
	return nil
}

func resolveInputs(messageHex, tweakHex, keyHex string, useRandom bool) (message, tweak, key [16]byte, err error) {
	if useRandom {
		for _, b := range [][]byte{message[:], tweak[:], key[:]} {
			if err = randomRead(b); err != nil {
				return
			}
		}
		return
	}
	if message, err = decodeHex16(messageHex, "message"); err != nil {
		return
	}
	if tweak, err = decodeHex16(tweakHex, "tweak"); err != nil {
		return
	}
	key, err = decodeHex16(keyHex, "key")
	return
}

func decodeHex16(s, field string) ([16]byte, error) {
	var out [16]byte
	raw, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("%s: invalid hex: %w", field, err)
	}
	if len(raw) != 16 {
		return out, fmt.Errorf("%s: must be exactly 16 bytes (got %d)", field, len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

func printReport(out [128]byte) {
	var branches [butterknife.Branches][16]byte
	for i := range branches {
		copy(branches[i][:], out[16*i:16*i+16])
		fmt.Printf("branch[%d] = %s\n", i, hex.EncodeToString(branches[i][:]))
	}

	fmt.Println("pairwise Hamming distances:")
	for i := 0; i < butterknife.Branches; i++ {
		for j := i + 1; j < butterknife.Branches; j++ {
			fmt.Printf("  d(branch[%d], branch[%d]) = %d\n", i, j, hammingDistance(branches[i], branches[j]))
		}
	}
}

func hammingDistance(a, b [16]byte) int {
	dist := 0
	for i := range a {
		dist += bits.OnesCount8(a[i] ^ b[i])
	}
	return dist
}

func runSelfTestCmd(cachePath string) error {
	report, err := selftest.Run()
	if err != nil {
		return fmt.Errorf("selftest: %w", err)
	}

	fmt.Printf("known-answer:        %v\n", report.KnownAnswerPassed)
	fmt.Printf("non-degenerate:      %v\n", report.NonDegenerate)
	fmt.Printf("branches distinct:   %v\n", report.BranchesDistinct)
	fmt.Printf("tweak separation:    %v\n", report.TweakSeparation)
	fmt.Printf("key separation:      %v\n", report.KeySeparation)
	fmt.Printf("message sensitivity: %v\n", report.MessageSensitivity)
	fmt.Printf("avalanche mean:      %.2f (pass=%v)\n", report.AvalancheMeanWeight, report.AvalanchePassed)

	if cachePath != "" {
		if err := cacheReport(cachePath, report); err != nil {
			logger.Printf("cache write skipped: %v", err)
		}
	}

	if !report.Passed() {
		return fmt.Errorf("self-test failed")
	}
	return nil
}

func cacheReport(path string, report selftest.Report) error {
	fingerprint, err := hostFingerprint()
	if err != nil {
		return err
	}
	key, err := resultcache.DeriveKey(fingerprint)
	if err != nil {
		return err
	}
	return resultcache.Save(path, key, report)
}

func hostFingerprint() ([]byte, error) {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown-host"
	}
	return []byte(host + "/" + runtime.GOARCH), nil
}

func defaultCachePath() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "butterknife", "selftest.cache")
	}
	if u, err := user.Current(); err == nil {
		return filepath.Join(u.HomeDir, ".cache", "butterknife", "selftest.cache")
	}
	return "butterknife-selftest.cache"
}

// runBatchDemo evaluates a batch of random blocks concurrently across n
// workers and reports throughput, demonstrating that Eval may be invoked
// concurrently from multiple goroutines with no coordination.
func runBatchDemo(n int) error {
	const batchSize = 256

	type input struct {
		message, tweak, key [16]byte
	}
	inputs := make([]input, batchSize)
	for i := range inputs {
		var in input
		if err := randomRead(in.message[:]); err != nil {
			return err
		}
		if err := randomRead(in.tweak[:]); err != nil {
			return err
		}
		if err := randomRead(in.key[:]); err != nil {
			return err
		}
		inputs[i] = in
	}

	start := time.Now()
	var g errgroup.Group
	g.SetLimit(n)
	for _, in := range inputs {
		g.Go(func() error {
			_ = butterknife.Eval(in.message, in.tweak, in.key)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("batch demo: %w", err)
	}
	elapsed := time.Since(start)
	fmt.Printf("batch demo: evaluated %d blocks across %d workers in %v (%.0f blocks/s)\n",
		batchSize, n, elapsed, float64(batchSize)/elapsed.Seconds())
	return nil
}

func randomRead(b []byte) error {
	if _, err := rand.Read(b); err != nil {
		return fmt.Errorf("read random bytes: %w", err)
	}
	return nil
}
