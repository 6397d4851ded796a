package models

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Book instance statuses. The single-letter codes are what gets persisted.
const (
	BookInstanceStatusMaintenance = "m"
	BookInstanceStatusOnLoan      = "o"
	BookInstanceStatusAvailable   = "a"
	BookInstanceStatusReserved    = "r"
)

var bookInstanceStatusLabels = map[string]string{
	BookInstanceStatusMaintenance: "Maintenance",
	BookInstanceStatusOnLoan:      "On loan",
	BookInstanceStatusAvailable:   "Available",
	BookInstanceStatusReserved:    "Reserved",
}

// BookInstanceStatuses lists every valid status code, in display order.
var BookInstanceStatuses = []string{
	BookInstanceStatusMaintenance,
	BookInstanceStatusOnLoan,
	BookInstanceStatusAvailable,
	BookInstanceStatusReserved,
}

// BookInstanceStatusLabel returns the human-readable label for a status code,
// or the code itself when it isn't known.
func BookInstanceStatusLabel(status string) string {
	if label, ok := bookInstanceStatusLabels[status]; ok {
		return label
	}
	return status
}

// IsValidBookInstanceStatus reports whether status is one of the known codes.
func IsValidBookInstanceStatus(status string) bool {
	_, ok := bookInstanceStatusLabels[status]
	return ok
}

// BookInstance is a physical copy of a book that can be borrowed.
type BookInstance struct {
	bun.BaseModel `bun:"table:book_instances,alias:bi" tstype:"-"`

	ID         string     `bun:",pk" json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	BookID     *int       `json:"book_id"`
	Book       *Book      `bun:"rel:belongs-to,join:book_id=id" json:"book,omitempty" tstype:"Book"`
	Imprint    string     `bun:",notnull" json:"imprint"`
	DueBack    *time.Time `json:"due_back"`
	BorrowerID *int       `json:"borrower_id"`
	Borrower   *User      `bun:"rel:belongs-to,join:borrower_id=id" json:"borrower,omitempty" tstype:"User"`
	Status     string     `bun:",notnull" json:"status"`

	// Computed on read.
	DisplayName   string `bun:"-" json:"display_name"`
	StatusDisplay string `bun:"-" json:"status_display"`
	Overdue       bool   `bun:"-" json:"is_overdue"`
}

// IsOverdue reports whether the copy's due date lies strictly before today.
// A copy without a due date is never overdue.
func (bi *BookInstance) IsOverdue(today time.Time) bool {
	if bi.DueBack == nil {
		return false
	}
	return DateOf(*bi.DueBack).Before(DateOf(today))
}

// Annotate fills in the computed fields relative to today.
func (bi *BookInstance) Annotate(today time.Time) {
	bi.DisplayName = bi.String()
	bi.StatusDisplay = BookInstanceStatusLabel(bi.Status)
	bi.Overdue = bi.IsOverdue(today)
}

func (bi *BookInstance) String() string {
	title := ""
	if bi.Book != nil {
		title = bi.Book.Title
	}
	return fmt.Sprintf("%s (%s)", bi.ID, title)
}
