package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"runtime/debug"
	"strings"
	"text/tabwriter"

	"github.com/MrWong99/mowa/internal/batch"
	"github.com/MrWong99/mowa/internal/textnorm/abbrev"
)

// maxLineSize is the longest input line accepted by line scanners.
const maxLineSize = 1 << 20

// scanLines calls fn for every line of src until src ends or ctx is done.
func scanLines(ctx context.Context, src io.Reader, fn func(line string)) error {
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(sc.Text())
	}
	return sc.Err()
}

// AbbrevCmd lists words that look like abbreviations missing from the
// tables.
type AbbrevCmd struct {
	Inputs []string `arg:"" optional:"" help:"Input files. Reads stdin when empty or '-'." type:"path"`
	IDs    bool     `name:"ids" help:"Ignore the first token of every line."`
	Top    int      `help:"Print at most this many candidates (0 = all)."`
	JSON   bool     `name:"json" help:"Print candidates as JSON."`
}

// Run implements the abbrev command.
func (c *AbbrevCmd) Run(g *Globals, e *env) error {
	cfg, err := g.load(e)
	if err != nil {
		return err
	}
	norm, err := normalizer(cfg)
	if err != nil {
		return err
	}
	ids := c.IDs || cfg.Batch.IDs

	f := abbrev.New(norm.Tables())
	err = forEachLine(e.ctx, c.Inputs, e.stdin, func(line string) {
		_, text := batch.SplitLine(line, ids)
		f.Add(norm.Classify(text))
	})
	if err != nil {
		return err
	}

	cands := f.Candidates()
	if c.Top > 0 && len(cands) > c.Top {
		cands = cands[:c.Top]
	}
	if c.JSON {
		enc := json.NewEncoder(e.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cands)
	}
	tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
	for _, cand := range cands {
		similar := "-"
		if cand.Similar != "" {
			similar = fmt.Sprintf("%s (%.2f)", cand.Similar, cand.Score)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", cand.Count, cand.Word, similar)
	}
	return tw.Flush()
}

// SpellCmd prints numbers in words.
type SpellCmd struct {
	Numbers []string `arg:"" help:"Numbers to spell. Non-digit characters are ignored."`
	Roman   bool     `help:"Read the arguments as Roman numerals."`
}

// Run implements the spell command.
func (c *SpellCmd) Run(g *Globals, e *env) error {
	cfg, err := g.load(e)
	if err != nil {
		return err
	}
	norm, err := normalizer(cfg)
	if err != nil {
		return err
	}
	conv := norm.Verbalizer().Numbers()
	for _, n := range c.Numbers {
		var (
			words []string
			ok    bool
		)
		if c.Roman {
			words, ok = conv.SpellRoman(n)
		} else {
			words, ok = conv.SpellDigits(n)
		}
		if !ok {
			return fmt.Errorf("spell: cannot spell %q", n)
		}
		fmt.Fprintln(e.stdout, strings.Join(words, " "))
	}
	return nil
}

// VersionCmd prints the version.
type VersionCmd struct{}

// Run implements the version command.
func (c *VersionCmd) Run(_ *Globals, e *env) error {
	goVersion := "unknown"
	if info, ok := debug.ReadBuildInfo(); ok {
		goVersion = info.GoVersion
	}
	_, err := fmt.Fprintf(e.stdout, "mowa %s (%s)\n", version, goVersion)
	return err
}
