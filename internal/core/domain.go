package core

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Source column labels of the uploaded table.
const (
	ColumnDate     = "Дата"
	ColumnType     = "Тип"
	ColumnAmount   = "Сумма"
	ColumnCategory = "Категория"
	ColumnTime     = "Время"
)

// Source tokens of the type column.
const (
	TokenIncome  = "Доход"
	TokenExpense = "Расход"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
	Unknown TransactionType = "unknown"
)

// RequiredColumns lists the columns every upload must carry, in display order.
var RequiredColumns = []string{ColumnDate, ColumnType, ColumnAmount, ColumnCategory, ColumnTime}

type (
	TransactionType string

	Date struct {
		time.Time
	}

	// Transaction is one validated row of the uploaded table.
	Transaction struct {
		Line     int // source line in the file, 1-based
		Date     Date
		Type     TransactionType
		RawType  string // type token as written in the file
		Amount   decimal.Decimal
		Category string
		Time     string // secondary field, kept as written
	}

	// AnnotatedTransaction carries the two derived columns the charts consume.
	// IncomeAmount is set only for income rows, ExpenseAmount only for expense rows.
	AnnotatedTransaction struct {
		Transaction
		IncomeAmount  *decimal.Decimal
		ExpenseAmount *decimal.Decimal
	}
)

// ErrInvalidDate is returned for a date that does not exist on the calendar.
var ErrInvalidDate = errors.New("invalid date")

// ParseTransactionType maps a source token to a TransactionType.
// Surrounding whitespace is ignored; matching is otherwise exact.
func ParseTransactionType(token string) TransactionType {
	switch strings.TrimSpace(token) {
	case TokenIncome:
		return Income
	case TokenExpense:
		return Expense
	default:
		return Unknown
	}
}

func (t TransactionType) String() string {
	return string(t)
}

// Label returns the source token for known types and "?" otherwise.
func (t TransactionType) Label() string {
	switch t {
	case Income:
		return TokenIncome
	case Expense:
		return TokenExpense
	default:
		return "?"
	}
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String renders the date in the source DD.MM.YYYY layout.
func (d Date) String() string {
	return d.Format("02.01.2006")
}

// ISO renders the date as YYYY-MM-DD.
func (d Date) ISO() string {
	return d.Format("2006-01-02")
}

// Quarter returns the calendar quarter, 1-4.
func (d Date) Quarter() int {
	return (int(d.Month())-1)/3 + 1
}

// TimeValue interprets the secondary time field as a number.
// Plain numbers are returned as-is; clock times (HH:MM or HH:MM:SS) are
// converted to hours. The second result is false when neither applies.
func (t Transaction) TimeValue() (float64, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(t.Time, ",", "."))
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	var hours float64
	scale := 1.0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, false
		}
		hours += float64(n) / scale
		scale *= 60
	}
	return hours, true
}

// Annotate derives the income/expense columns for a transaction.
func Annotate(t Transaction) AnnotatedTransaction {
	at := AnnotatedTransaction{Transaction: t}
	amount := t.Amount
	switch t.Type {
	case Income:
		at.IncomeAmount = &amount
	case Expense:
		at.ExpenseAmount = &amount
	}
	return at
}
