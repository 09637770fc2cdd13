package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// PendingSubmission is the in-flight association between an applicant's
// writeup and the reviewer it was assigned to.
type PendingSubmission struct {
	Username     *string `json:"username"`
	FileID       string  `json:"file_id"`
	Reviewer     int64   `json:"reviewer"`
	DocumentPath *string `json:"document_path,omitempty"`
}

// Document is the whole persisted state of the bot: the reviewer
// rotation, the pending submissions and the blocked applicants. It is
// always loaded and saved as one piece.
type Document struct {
	Reviewers []int64                      `json:"reviewers"`
	NextIndex int                          `json:"next_index"`
	Pending   map[string]PendingSubmission `json:"pending"`
	Blocked   []int64                      `json:"blocked"`
}

func pendingKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (d *Document) PendingFor(id int64) (PendingSubmission, bool) {
	rec, ok := d.Pending[pendingKey(id)]
	return rec, ok
}

func (d *Document) SetPending(id int64, rec PendingSubmission) {
	if d.Pending == nil {
		d.Pending = make(map[string]PendingSubmission)
	}
	d.Pending[pendingKey(id)] = rec
}

// PopPending removes and returns the applicant's pending record. A
// missing record means the submission was already handled.
func (d *Document) PopPending(id int64) (PendingSubmission, bool) {
	rec, ok := d.Pending[pendingKey(id)]
	if ok {
		delete(d.Pending, pendingKey(id))
	}
	return rec, ok
}

func (d *Document) IsBlocked(id int64) bool {
	for _, blocked := range d.Blocked {
		if blocked == id {
			return true
		}
	}

	return false
}

// Block adds the applicant to the blocked set and reports whether the
// set actually changed.
func (d *Document) Block(id int64) bool {
	if d.IsBlocked(id) {
		return false
	}

	d.Blocked = append(d.Blocked, id)

	return true
}

// Unblock removes the applicant from the blocked set and reports
// whether they were blocked at all.
func (d *Document) Unblock(id int64) bool {
	for i, blocked := range d.Blocked {
		if blocked == id {
			d.Blocked = append(d.Blocked[:i], d.Blocked[i+1:]...)
			return true
		}
	}

	return false
}

func (d *Document) IsReviewer(id int64) bool {
	for _, reviewer := range d.Reviewers {
		if reviewer == id {
			return true
		}
	}

	return false
}

// Store reads and writes the state document at a fixed path. The file
// must be provisioned by hand with at least the reviewer list and the
// rotation cursor before the bot can assign work.
type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{
		path: path,
	}
}

func (s *Store) Load() (*Document, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("Store.Load: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("Store.Load: malformed %s: %w", s.path, err)
	}

	if doc.Pending == nil {
		doc.Pending = make(map[string]PendingSubmission)
	}
	if doc.Blocked == nil {
		doc.Blocked = []int64{}
	}

	return &doc, nil
}

// Save overwrites the whole file. There is no locking and no atomic
// rename: when two saves race, the later write wins.
func (s *Store) Save(doc *Document) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("Store.Save: cannot create dir %s: %w", dir, err)
		}
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("Store.Save: %w", err)
	}

	if err := os.WriteFile(s.path, raw, 0644); err != nil {
		return fmt.Errorf("Store.Save: %w", err)
	}

	return nil
}

// NextReviewer picks the reviewer under the rotation cursor and
// advances the cursor, saving the document right away. Once picked, a
// reviewer stays consumed even if the submission that triggered the
// pick never reaches them. The cursor is reduced modulo the current
// list length, so a shrunken reviewer list cannot push it out of range.
func (s *Store) NextReviewer(doc *Document) (int64, bool, error) {
	if len(doc.Reviewers) == 0 {
		return 0, false, nil
	}

	reviewer := doc.Reviewers[doc.NextIndex%len(doc.Reviewers)]
	doc.NextIndex = (doc.NextIndex + 1) % len(doc.Reviewers)

	if err := s.Save(doc); err != nil {
		return 0, false, err
	}

	return reviewer, true, nil
}
