package view

import "testing"

func TestSequencerAcceptsOnlyMostRecent(t *testing.T) {
	var seq Sequencer

	first := seq.Next()
	second := seq.Next()

	if seq.Accept(first) {
		t.Fatalf("superseded request was accepted")
	}
	if !seq.Accept(second) {
		t.Fatalf("most recent request was rejected")
	}
}

func TestSequencerStaleAfterLaterIssue(t *testing.T) {
	var seq Sequencer

	current := seq.Next()
	if !seq.Accept(current) {
		t.Fatalf("expected the only request to be current")
	}

	seq.Next()
	if seq.Accept(current) {
		t.Fatalf("request stayed current after a newer issue")
	}
}
