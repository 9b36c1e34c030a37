package history

import (
	"testing"
	"time"
)

func TestDatabase(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}

	if err := db.RecordSync("pool.ntp.org", 12*time.Millisecond, 40*time.Millisecond, 2); err != nil {
		t.Errorf("record sync: %v", err)
	}

	if err := db.RecordPhrase(14, 15, "Es ist viertel Drei"); err != nil {
		t.Errorf("record phrase: %v", err)
	}
	if err := db.RecordPhrase(14, 30, "Es ist halb Drei"); err != nil {
		t.Errorf("record phrase: %v", err)
	}

	got, err := db.RecentPhrases(10)
	if err != nil {
		t.Fatalf("recent phrases: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("recent phrases: got %d rows, want 2", len(got))
	}
	if got[0].Text != "Es ist halb Drei" && got[1].Text != "Es ist halb Drei" {
		t.Errorf("recent phrases missing newest row: %v", got)
	}
}
