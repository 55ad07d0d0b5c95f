package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/jmylchreest/allcolour/internal/grid"
	"github.com/jmylchreest/allcolour/internal/placement"
)

// sizeValue is a pflag.Value holding "WxH".
type sizeValue struct {
	width, height int
}

var _ pflag.Value = (*sizeValue)(nil)

func (v *sizeValue) String() string {
	return fmt.Sprintf("%dx%d", v.width, v.height)
}

func (v *sizeValue) Set(s string) error {
	w, h, err := placement.ParseSize(s)
	if err != nil {
		return err
	}
	v.width, v.height = w, h
	return nil
}

func (v *sizeValue) Type() string {
	return "WxH"
}

// startsValue is a repeatable pflag.Value collecting "x,y" points. A single
// flag may also carry several points separated by ';'.
type startsValue struct {
	points []grid.Coord
}

var _ pflag.Value = (*startsValue)(nil)

func (v *startsValue) String() string {
	parts := make([]string, len(v.points))
	for i, p := range v.points {
		parts[i] = fmt.Sprintf("%d,%d", p.X, p.Y)
	}
	return strings.Join(parts, ";")
}

func (v *startsValue) Set(s string) error {
	for _, part := range strings.Split(s, ";") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		c, err := placement.ParseCoord(part)
		if err != nil {
			return err
		}
		v.points = append(v.points, c)
	}
	return nil
}

func (v *startsValue) Type() string {
	return "x,y"
}
