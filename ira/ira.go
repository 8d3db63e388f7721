// Package ira decodes IRA (ring alert) frames: satellite/beam identity,
// position, and paging records.
package ira

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/iridium-toolkit/reassemble/frame"
)

// Page is one (tmsi, msc_id) paging record carried by an IRA frame.
type Page struct {
	TMSI  string
	MSCID int
}

// Record is a fully decoded IRA frame.
type Record struct {
	Time  frame.Time
	Sat   int
	Beam  int
	HaveXYZ bool
	XYZKM [3]float64
	Lat   float64
	Lon   float64
	Alt   float64
	Pages []Page
}

var iraBody = regexp.MustCompile(
	`sat:(\d+) beam:(\d+) (?:xyz=\(([-\d]+),([-\d]+),([-\d]+)\) )?pos=\(([-\d.]+)/([-\d.]+)\) alt=(-?\d+)`)

var pageRe = regexp.MustCompile(`PAGE\(tmsi:([0-9a-f]+),msc_id:(\d+)\)`)

// Parse decodes an IRA frame's enriched data field into a Record.
// Returns nil, nil when the frame is not an IRA frame, and an error when an
// IRA frame's body doesn't match the IRA body grammar.
func Parse(e *frame.Enriched) (*Record, error) {
	if e.Typ != "IRA:" {
		return nil, nil
	}
	m := iraBody.FindStringSubmatch(e.Data)
	if m == nil {
		return nil, fmt.Errorf("couldn't parse IRA: %s", e.Data)
	}

	sat, _ := strconv.Atoi(m[1])
	beam, _ := strconv.Atoi(m[2])
	lat, _ := strconv.ParseFloat(m[6], 64)
	lon, _ := strconv.ParseFloat(m[7], 64)
	alt, _ := strconv.ParseFloat(m[8], 64)

	r := &Record{
		Time: e.Time,
		Sat:  sat,
		Beam: beam,
		Lat:  lat,
		Lon:  lon,
		Alt:  alt,
	}

	if m[3] != "" {
		x, _ := strconv.ParseFloat(m[3], 64)
		y, _ := strconv.ParseFloat(m[4], 64)
		z, _ := strconv.ParseFloat(m[5], 64)
		r.HaveXYZ = true
		r.XYZKM = [3]float64{x * 4, y * 4, z * 4}
	}

	for _, pm := range pageRe.FindAllStringSubmatch(e.Data, -1) {
		mscID, _ := strconv.Atoi(pm[2])
		r.Pages = append(r.Pages, Page{TMSI: pm[1], MSCID: mscID})
	}

	return r, nil
}

// PageLines renders one "page" mode output line per paging
// record carried by the frame.
func PageLines(r *Record) []string {
	var out []string
	for _, p := range r.Pages {
		out = append(out, fmt.Sprintf("%d %d %.4f %.4f %.1f : %s %d", r.Sat, r.Beam, r.Lat, r.Lon, r.Alt, p.TMSI, p.MSCID))
	}
	return out
}
