package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ruffel/mbl"
	"github.com/ruffel/mbl/mbltest"
	"github.com/ruffel/mbl/providers/ssh"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that the device supports every mbl operation",
	Long: `Runs the mbl behavioural contract suite against the device: commands, exit
codes, file transfers and session handling. Scratch files are created under
/tmp/mbl-test-* on the device.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		device, err := resolveDevice()
		if err != nil {
			return err
		}

		fmt.Println(bannerStyle.Render("Verifying " + device.String()))

		results := runContracts(cmd.Context(), func(ctx context.Context) (mbl.Session, error) {
			return ssh.Connect(ctx, device, sessionOptions()...)
		})

		if failed := renderResults(os.Stdout, results); failed > 0 {
			return &exitCodeError{code: 1}
		}

		return nil
	},
}

type contractResult struct {
	tc      mbltest.TestCase
	passed  bool
	skipped bool
	msg     string
}

// contractT runs one contract outside "go test". FailNow and Skipf unwind
// the contract with a panic that runContract recovers.
type contractT struct {
	ctx      context.Context //nolint:containedctx
	name     string
	failed   bool
	skipped  bool
	msg      string
	tempDirs []string
}

type failNow struct{}

type skipNow struct{}

func (c *contractT) Errorf(f string, a ...any) {
	c.failed = true

	if c.msg == "" {
		c.msg = strings.TrimSpace(fmt.Sprintf(f, a...))
	}
}

func (c *contractT) FailNow() {
	c.failed = true

	panic(failNow{})
}

func (c *contractT) Skipf(f string, a ...any) {
	c.skipped = true
	c.msg = fmt.Sprintf(f, a...)

	panic(skipNow{})
}

func (c *contractT) Context() context.Context {
	return c.ctx
}

func (c *contractT) Name() string {
	return c.name
}

func (c *contractT) TempDir() string {
	dir, err := os.MkdirTemp("", "mbl-verify-*")
	if err != nil {
		panic(err)
	}

	c.tempDirs = append(c.tempDirs, dir)

	return dir
}

func (c *contractT) cleanup() {
	for _, dir := range c.tempDirs {
		_ = os.RemoveAll(dir)
	}
}

func runContracts(ctx context.Context, connect func(context.Context) (mbl.Session, error)) []contractResult {
	contracts := mbltest.AllContracts()
	results := make([]contractResult, 0, len(contracts))

	for _, tc := range contracts {
		results = append(results, runContract(ctx, tc, connect))
	}

	return results
}

func runContract(ctx context.Context, tc mbltest.TestCase, connect func(context.Context) (mbl.Session, error)) contractResult {
	t := &contractT{ctx: ctx, name: tc.ID()}
	defer t.cleanup()

	s, err := connect(ctx)
	if err != nil {
		return contractResult{tc: tc, msg: err.Error()}
	}

	defer func() { _ = s.Close() }()

	func() {
		defer func() {
			if r := recover(); r != nil {
				switch r.(type) {
				case failNow, skipNow:
				default:
					panic(r)
				}
			}
		}()

		tc.Run(t, s)
	}()

	return contractResult{
		tc:      tc,
		passed:  !t.failed && !t.skipped,
		skipped: t.skipped,
		msg:     t.msg,
	}
}

// renderResults writes one row per contract grouped by category and returns
// the number of failures.
func renderResults(out io.Writer, results []contractResult) int {
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.tc.Name)
	}

	t := newTable("CONTRACT", names)
	fmt.Fprintln(out, t.header("CONTRACT", "RESULT"))

	var (
		currentCat string
		issues     []string
	)

	for _, r := range results {
		if r.tc.Category != currentCat {
			currentCat = r.tc.Category
			fmt.Fprintln(out, group(currentCat))
		}

		v := r.verdict()
		if v == verdictFailed {
			issues = append(issues, fmt.Sprintf("%s: %s", r.tc.ID(), r.msg))
		}

		fmt.Fprintln(out, t.row(r.tc.Name, v.render()))
	}

	if len(issues) > 0 {
		fmt.Fprintln(out, errorStyle.Render("\nIssue Details:"))

		for _, issue := range issues {
			fmt.Fprintf(out, "  - %s\n", issue)
		}

		return len(issues)
	}

	fmt.Fprintln(out, doneStyle.Render("All contracts passed."))

	return 0
}

func (r contractResult) verdict() verdict {
	switch {
	case r.skipped:
		return verdictSkipped
	case !r.passed:
		return verdictFailed
	default:
		return verdictPassed
	}
}
