// Package loader reads experimental NLD curves from numeric text tables.
package loader

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/oslo-method/nldnorm/internal/model"
)

// ErrBadTable indicates a row with the wrong number of columns or an
// inconsistent column count across rows.
var ErrBadTable = eris.New("loader: curve table must have 2 or 3 numeric columns")

// ReadCurve parses a curve table from r: one bin per line, columns
// [Ex, value] or [Ex, value, uncertainty], whitespace or comma
// separated, '#' comments and blank lines skipped. The parsed curve is
// validated (unit sanity first) before it is returned.
func ReadCurve(r io.Reader) (model.Curve, error) {
	var c model.Curve
	cols := 0
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		text = strings.ReplaceAll(text, ",", " ")
		fields := strings.Fields(text)
		if len(fields) != 2 && len(fields) != 3 {
			return model.Curve{}, eris.Wrapf(ErrBadTable, "line %d has %d columns", line, len(fields))
		}
		if cols == 0 {
			cols = len(fields)
		} else if len(fields) != cols {
			return model.Curve{}, eris.Wrapf(ErrBadTable, "line %d has %d columns, previous rows had %d", line, len(fields), cols)
		}

		vals := make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return model.Curve{}, eris.Wrapf(err, "loader: line %d column %d", line, i+1)
			}
			vals[i] = v
		}
		c.Ex = append(c.Ex, vals[0])
		c.Value = append(c.Value, vals[1])
		if cols == 3 {
			c.Unc = append(c.Unc, vals[2])
		}
	}
	if err := sc.Err(); err != nil {
		return model.Curve{}, eris.Wrap(err, "loader: read curve")
	}
	if c.Len() == 0 {
		return model.Curve{}, eris.Wrap(ErrBadTable, "empty table")
	}
	if err := c.Validate(); err != nil {
		return model.Curve{}, err
	}
	return c, nil
}

// LoadCurve reads a curve table from a file.
func LoadCurve(path string) (model.Curve, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Curve{}, eris.Wrapf(err, "loader: open %s", path)
	}
	defer f.Close()
	c, err := ReadCurve(f)
	if err != nil {
		return model.Curve{}, eris.Wrapf(err, "loader: %s", path)
	}
	return c, nil
}
