package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/san-kum/pidctl/internal/pid"
)

// calcStream feeds "setpoint measurement" pairs, one per line, to c and
// writes one output per line. Blank lines and lines starting with # are
// skipped. With resetEvery > 0 the controller history is cleared before
// every resetEvery-th sample.
func calcStream(in io.Reader, out io.Writer, c *pid.Controller, peek bool, resetEvery int) error {
	scanner := bufio.NewScanner(in)
	w := bufio.NewWriter(out)
	defer w.Flush()

	lineNo, samples := 0, 0
	for scanner.Scan() {
		lineNo++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})
		if len(fields) != 2 {
			return fmt.Errorf("line %d: want \"setpoint measurement\", got %q", lineNo, text)
		}
		sp, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return fmt.Errorf("line %d: setpoint: %w", lineNo, err)
		}
		m, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return fmt.Errorf("line %d: measurement: %w", lineNo, err)
		}

		if resetEvery > 0 && samples > 0 && samples%resetEvery == 0 {
			if err := c.Reset(); err != nil {
				return err
			}
		}

		var v float64
		if peek {
			v, err = c.CalculatePeek(sp, m)
		} else {
			v, err = c.Calculate(sp, m)
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		samples++

		if _, err := fmt.Fprintln(w, strconv.FormatFloat(v, 'g', -1, 64)); err != nil {
			return err
		}
	}
	return scanner.Err()
}
