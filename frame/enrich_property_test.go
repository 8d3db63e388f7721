package frame

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

// TestChannelRoundTrip checks channel round-trip law: for any
// (chan, off) with 0 <= off < width, freq = base + chan*width + off implies
// the recovered freq_chan == chan and freq_off == off - width/2.
func TestChannelRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ch := rapid.IntRange(-2000, 2000).Draw(t, "chan")
		off := rapid.Int64Range(0, ChannelWidth-1).Draw(t, "off")

		freq := BaseFreq + ChannelWidth*int64(ch) + off
		line := fmt.Sprintf("IDA: p-1000-e000 0.0 %d 100%% 1 8 DL x", freq)

		r, err := Parse(line)
		if err != nil {
			t.Fatal(err)
		}
		en := &Enricher{}
		e, err := en.Enrich(r, Options{})
		if err != nil {
			t.Fatal(err)
		}

		if e.FreqChan != ch {
			t.Fatalf("freq_chan: got %d want %d", e.FreqChan, ch)
		}
		wantOff := off - ChannelWidth/2
		if e.FreqOff != wantOff {
			t.Fatalf("freq_off: got %d want %d", e.FreqOff, wantOff)
		}
	})
}
