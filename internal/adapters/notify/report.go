package notify

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/astrolab/knwatch/internal/domain/model"
)

const (
	portalURLFormat = "http://134.158.75.151:24000/%s"
	tnsURLFormat    = "https://www.wis-tns.org/search?ra=%f&decl=%f&radius=5&coords_unit=arcsec"
)

var bandNames = map[int]string{
	model.BandG: "g",
	model.BandR: "r",
	model.BandI: "i",
}

// Payload is the webhook message body. The layout follows the Slack
// incoming-webhook block format.
type Payload struct {
	Blocks   []Block `json:"blocks,omitempty"`
	Text     string  `json:"text,omitempty"`
	Username string  `json:"username"`
}

// Block is one section of the rendered report.
type Block struct {
	Type   string       `json:"type"`
	Fields []TextObject `json:"fields,omitempty"`
}

// TextObject is a single formatted text cell inside a block.
type TextObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func section(texts ...string) Block {
	fields := make([]TextObject, 0, len(texts))
	for _, t := range texts {
		fields = append(fields, TextObject{Type: "mrkdwn", Text: t})
	}
	return Block{Type: "section", Fields: fields}
}

// jdToUTC converts a julian date to UTC wall time.
func jdToUTC(jd float64) time.Time {
	sec := (jd - 2440587.5) * 86400.0
	return time.Unix(int64(sec), 0).UTC()
}

func fmtValue(v float64, format string) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf(format, v)
}

// BuildReport renders the candidate into a webhook payload. Every field
// the downstream reader needs to vet the candidate is inlined so no
// portal round-trip is required for triage.
func BuildReport(c *model.Candidate, username string) Payload {
	blocks := []Block{
		section(fmt.Sprintf("*New %s candidate:* <"+portalURLFormat+"|%s>",
			c.RuleSet, c.ObjectID, c.ObjectID)),
		section(scoreLine(c)),
		section(timeLine(c)),
		section(measurementLine(c)),
		section(
			fmt.Sprintf("*Equatorial coordinates:*\n- [hms, dms]: [%s, %s]\n- [deg, deg]: [%.6f, %.6f]",
				c.RAFormatted, c.DecFormatted, c.RA, c.Dec),
			fmt.Sprintf("*Galactic latitude:* %s deg", fmtValue(c.GalacticLat, "%.2f")),
		),
		section(fmt.Sprintf("<"+tnsURLFormat+"|TNS search>", c.RA, c.Dec)),
	}

	if c.Host != nil {
		blocks = append(blocks, section(hostLines(c)...))
	}

	return Payload{Blocks: blocks, Username: username}
}

func scoreLine(c *model.Candidate) string {
	var b strings.Builder
	b.WriteString("*Scores:*\n")
	fmt.Fprintf(&b, "- Kilonova: %s\n", fmtValue(c.KnScore, "%.3f"))
	fmt.Fprintf(&b, "- Random forest: %s\n", fmtValue(c.RFScore, "%.3f"))
	fmt.Fprintf(&b, "- SN Ia vs non-Ia: %s\n", fmtValue(c.SnnSNIa, "%.3f"))
	fmt.Fprintf(&b, "- SN vs all: %s", fmtValue(c.SnnSN, "%.3f"))
	return b.String()
}

func timeLine(c *model.Candidate) string {
	epoch := jdToUTC(c.JD).Format("2006-01-02 15:04:05") + " UTC"

	// Early kilonova candidates are hours old; everything else is
	// reported in days.
	elapsed := fmt.Sprintf("%s days", fmtValue(c.DaysSinceFirst, "%.2f"))
	if c.RuleSet == "early_kn" && !math.IsNaN(c.DaysSinceFirst) {
		elapsed = fmt.Sprintf("%.1f hours", c.DaysSinceFirst*24)
	}
	return fmt.Sprintf("*Time:*\n- %s (JD %.5f)\n- Time since first detection: %s",
		epoch, c.JD, elapsed)
}

func measurementLine(c *model.Candidate) string {
	band := bandNames[c.Band]
	if band == "" {
		band = fmt.Sprintf("band %d", c.Band)
	}
	line := fmt.Sprintf("*Measurement (%s band):*\n- Apparent DC magnitude: %s +/- %s",
		band, fmtValue(c.ApparentMag, "%.2f"), fmtValue(c.MagErr, "%.2f"))
	if !math.IsNaN(c.Rate) {
		line += fmt.Sprintf("\n- Rate: %.2f mag/day", c.Rate)
	}
	return line
}

func hostLines(c *model.Candidate) []string {
	g := c.Host
	name := g.Name
	if name == "" {
		name = fmt.Sprintf("galaxy %d", g.Index)
	}
	return []string{
		fmt.Sprintf("*Host candidate:* %s (catalog index %d)", name, g.Index),
		fmt.Sprintf("*Luminosity distance:* %.1f +/- %.1f Mpc", g.LumDist, g.DistErr),
		fmt.Sprintf("*log10(stellar mass):* %s", fmtValue(g.StellarMass, "%.2f")),
		fmt.Sprintf("*Projected separation:* %s kpc", fmtValue(c.SeparationKpc, "%.1f")),
		fmt.Sprintf("*Absolute magnitude at host distance:* %s", fmtValue(c.AbsMag, "%.2f")),
	}
}
