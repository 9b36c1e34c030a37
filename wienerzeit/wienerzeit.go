// Package wienerzeit converts a clock reading into the words a Viennese
// person would use to say the time.
package wienerzeit

import (
	"fmt"
	"math/rand"
)

// Phrase is the spoken form of a clock reading.  LeadIn connects "Es ist" to
// the rest of the phrase ("fünf nach", "punkt", ...; empty on some bands).
// Qualifier is the quarter-hour word ("viertel", "halb", "dreiviertel");
// empty when the phrase doesn't need one.  HourName is the capitalized name
// of the hour being referred to, which is usually the *next* hour; Viennese
// time-telling counts toward the coming quarter.
type Phrase struct {
	LeadIn    string
	Qualifier string
	HourName  string
}

var minuteWords = [...]string{
	"", "eins", "zwei", "drei", "vier", "fünf", "sechs", "sieben",
	"acht", "neun", "zehn", "elf", "zwölf", "dreizehn", "vierzehn",
}

// The same twelve names twice, so a 24h display hour indexes directly.
var hourNames = [...]string{
	"Eins", "Zwei", "Drei", "Vier", "Fünf", "Sechs", "Sieben",
	"Acht", "Neun", "Zehn", "Elf", "Zwölf",
	"Eins", "Zwei", "Drei", "Vier", "Fünf", "Sechs",
	"Sieben", "Acht", "Neun", "Zehn", "Elf", "Zwölf",
}

func minuteWord(n int) string {
	if n < 1 || n >= len(minuteWords) {
		// The band logic only produces counts in [1,14]; anything else is a
		// bug here, not bad input.
		panic(fmt.Sprintf("minute word %d out of range", n))
	}
	return minuteWords[n]
}

// Convert returns the Viennese phrase for the provided wall-clock reading.
// Minutes 10, 20, 40 and 50 each have two equally valid phrasings; Convert
// picks one with a coin flip seeded from the input itself, so calling it
// again in the same minute yields the same phrase.  Use ConvertVariant to
// control the flip directly.
func Convert(hour, minute int) (Phrase, error) {
	rng := rand.New(rand.NewSource(int64(hour)*100 + int64(minute)))
	return ConvertVariant(hour, minute, rng.Intn(2) == 0)
}

// ConvertVariant is Convert with the alternative-phrasing choice made by the
// caller.  The flag only matters for minutes 10, 20, 40 and 50.
func ConvertVariant(hour, minute int, alternative bool) (Phrase, error) {
	if hour < 0 || hour > 23 {
		return Phrase{}, fmt.Errorf("hour %d outside [0,23]", hour)
	}
	if minute < 0 || minute > 59 {
		return Phrase{}, fmt.Errorf("minute %d outside [0,59]", minute)
	}

	var leadIn, qualifier string
	var offset int
	switch {
	case minute == 0:
		leadIn = "punkt"
	case alternative && minute == 10:
		// "zehn nach" instead of "fünf vor viertel".
		leadIn = "zehn nach"
	case alternative && minute == 20:
		// "zehn vor halb" instead of "fünf nach viertel".
		leadIn, qualifier, offset = "zehn vor", "halb", 1
	case alternative && minute == 40:
		// "zehn nach halb" instead of "fünf vor dreiviertel".
		leadIn, qualifier, offset = "zehn nach", "halb", 1
	case alternative && minute == 50:
		// "zehn vor" instead of "fünf nach dreiviertel".
		leadIn, offset = "zehn vor", 1
	case minute < 15:
		if minute < 7 {
			leadIn = minuteWord(minute) + " nach"
		} else {
			leadIn, qualifier, offset = minuteWord(15-minute)+" vor", "viertel", 1
		}
	case minute == 15:
		leadIn, offset = "viertel", 1
	case minute < 30:
		if minute < 23 {
			leadIn, qualifier, offset = minuteWord(minute-15)+" nach", "viertel", 1
		} else {
			leadIn, qualifier, offset = minuteWord(30-minute)+" vor", "halb", 1
		}
	case minute == 30:
		leadIn, offset = "halb", 1
	case minute < 45:
		if minute < 38 {
			leadIn, qualifier, offset = minuteWord(minute-30)+" nach", "halb", 1
		} else {
			leadIn, qualifier, offset = minuteWord(45-minute)+" vor", "dreiviertel", 1
		}
	case minute == 45:
		leadIn, offset = "dreiviertel", 1
	default: // minute > 45
		if minute < 53 {
			leadIn, qualifier, offset = minuteWord(minute-45)+" nach", "dreiviertel", 1
		} else {
			leadIn, offset = minuteWord(60-minute)+" vor", 1
		}
	}

	display := (hour + offset) % 24
	if display == 0 {
		display = 24 // midnight says "Zwölf", not hourNames[-1]
	}
	return Phrase{
		LeadIn:    leadIn,
		Qualifier: qualifier,
		HourName:  hourNames[(display-1)%24],
	}, nil
}
