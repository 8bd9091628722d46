package core

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

const (
	// MaxInstallments bounds the number of installments a purchase can have.
	MaxInstallments = 60

	maxDescriptionLen = 200
)

type (
	// Income is a one-time entry of money received.
	Income struct {
		ID          string `json:"id" yaml:"id" validate:"required"`
		Date        Date   `json:"date" yaml:"date" validate:"required"`
		Description string `json:"description" yaml:"description"`
		Value       Money  `json:"value" yaml:"value" validate:"gt=0"`
	}

	// PaidMonth records that a fixed cost was settled for a month.
	PaidMonth struct {
		MonthKey MonthKey `json:"monthKey" yaml:"monthKey" validate:"monthkey"`
	}

	// FixedCost is a recurring monthly obligation due on DueDay.
	FixedCost struct {
		ID          string      `json:"id" yaml:"id" validate:"required"`
		Description string      `json:"description" yaml:"description"`
		Value       Money       `json:"value" yaml:"value" validate:"gt=0"`
		DueDay      int         `json:"dueDate" yaml:"dueDate" validate:"min=1,max=31"`
		PaidMonths  []PaidMonth `json:"paidMonths" yaml:"paidMonths" validate:"unique=MonthKey,dive"`
	}

	// Installment is one scheduled share of a purchase. It is addressed by its
	// position inside the purchase.
	Installment struct {
		Value   Money `json:"value" yaml:"value"`
		DueDate Date  `json:"dueDate" yaml:"dueDate" validate:"required"`
		IsPaid  bool  `json:"isPaid" yaml:"isPaid"`
	}

	// Purchase is a credit card purchase split into installments at creation.
	Purchase struct {
		ID           string        `json:"id" yaml:"id" validate:"required"`
		Date         Date          `json:"date" yaml:"date" validate:"required"`
		Description  string        `json:"description" yaml:"description"`
		Value        Money         `json:"value" yaml:"value" validate:"gt=0"`
		Installments []Installment `json:"installments" yaml:"installments" validate:"min=1,max=60,dive"`
	}

	// CreditCard groups purchases billed on the card's DueDay.
	CreditCard struct {
		ID        string     `json:"id" yaml:"id" validate:"required"`
		Name      string     `json:"name" yaml:"name"`
		DueDay    int        `json:"dueDate" yaml:"dueDate" validate:"min=1,max=31"`
		Purchases []Purchase `json:"purchases" yaml:"purchases" validate:"dive"`
	}

	// AppData is the whole ledger snapshot.
	AppData struct {
		Incomes    []Income     `json:"entradas" yaml:"entradas" validate:"required,dive"`
		FixedCosts []FixedCost  `json:"fixas" yaml:"fixas" validate:"required,dive"`
		Cards      []CreditCard `json:"cartoes" yaml:"cartoes" validate:"required,dive"`
		// LastProcessedMonth is the watermark of the last month turnover; nil
		// until the first turnover has run.
		LastProcessedMonth *MonthKey `json:"lastProcessedMonth" yaml:"lastProcessedMonth" validate:"omitempty,monthkey"`
	}
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidMonthKey     = errors.New("invalid month key")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrFractionalCents     = errors.New("invalid amount: more than two decimal places")
	ErrInvalidDueDay       = errors.New("invalid due day: must be between 1 and 31")
	ErrInvalidInstallments = errors.New("invalid installment count: must be between 1 and 60")
	ErrEmptyDescription    = errors.New("empty description")
	ErrEmptyName           = errors.New("empty name")
	ErrDescriptionTooLong  = errors.New("description too long (max 200 characters)")
)

// NewID returns a fresh opaque identifier.
func NewID() string {
	return uuid.NewString()
}

// NewAppData returns the empty snapshot used on first start.
func NewAppData() AppData {
	return AppData{
		Incomes:    []Income{},
		FixedCosts: []FixedCost{},
		Cards:      []CreditCard{},
	}
}

// Watermark returns the last processed month and whether it is set.
func (a AppData) Watermark() (MonthKey, bool) {
	if a.LastProcessedMonth == nil {
		return "", false
	}
	return *a.LastProcessedMonth, true
}

// Clone returns a deep copy sharing no slices with a.
func (a AppData) Clone() AppData {
	out := AppData{
		Incomes:    append([]Income{}, a.Incomes...),
		FixedCosts: make([]FixedCost, len(a.FixedCosts)),
		Cards:      make([]CreditCard, len(a.Cards)),
	}
	for i, f := range a.FixedCosts {
		out.FixedCosts[i] = f.Clone()
	}
	for i, c := range a.Cards {
		out.Cards[i] = c.Clone()
	}
	if a.LastProcessedMonth != nil {
		k := *a.LastProcessedMonth
		out.LastProcessedMonth = &k
	}
	return out
}

// Normalize replaces nil collections with empty ones so the snapshot always
// encodes arrays, never null.
func (a *AppData) Normalize() {
	if a.Incomes == nil {
		a.Incomes = []Income{}
	}
	if a.FixedCosts == nil {
		a.FixedCosts = []FixedCost{}
	}
	if a.Cards == nil {
		a.Cards = []CreditCard{}
	}
	for i := range a.FixedCosts {
		if a.FixedCosts[i].PaidMonths == nil {
			a.FixedCosts[i].PaidMonths = []PaidMonth{}
		}
	}
	for i := range a.Cards {
		if a.Cards[i].Purchases == nil {
			a.Cards[i].Purchases = []Purchase{}
		}
	}
}

func (f FixedCost) Clone() FixedCost {
	f.PaidMonths = append([]PaidMonth{}, f.PaidMonths...)
	return f
}

// IsPaidFor reports whether the cost was settled for month k.
func (f FixedCost) IsPaidFor(k MonthKey) bool {
	for _, p := range f.PaidMonths {
		if p.MonthKey == k {
			return true
		}
	}
	return false
}

func (c CreditCard) Clone() CreditCard {
	purchases := make([]Purchase, len(c.Purchases))
	for i, p := range c.Purchases {
		purchases[i] = p.Clone()
	}
	c.Purchases = purchases
	return c
}

func (p Purchase) Clone() Purchase {
	p.Installments = append([]Installment{}, p.Installments...)
	return p
}

// InstallmentsTotal sums the values of every installment of the purchase.
func (p Purchase) InstallmentsTotal() Money {
	total := Zero
	for _, inst := range p.Installments {
		total = total.Add(inst.Value)
	}
	return total
}

func validateDescription(desc string) error {
	if strings.TrimSpace(desc) == "" {
		return ErrEmptyDescription
	}
	if len(desc) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}

// ValidateDueDay checks a day-of-month. Days are not checked against the
// length of any particular month.
func ValidateDueDay(day int) error {
	if day < 1 || day > 31 {
		return ErrInvalidDueDay
	}
	return nil
}

func (i Income) Validate() error {
	if err := i.Date.Validate(); err != nil {
		return err
	}
	if err := validateDescription(i.Description); err != nil {
		return err
	}
	return i.Value.Validate()
}

func (f FixedCost) Validate() error {
	if err := validateDescription(f.Description); err != nil {
		return err
	}
	if err := f.Value.Validate(); err != nil {
		return err
	}
	return ValidateDueDay(f.DueDay)
}

func (c CreditCard) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return ValidateDueDay(c.DueDay)
}

// ValidateInstallmentCount checks the 1..60 bound on installments.
func ValidateInstallmentCount(n int) error {
	if n < 1 || n > MaxInstallments {
		return ErrInvalidInstallments
	}
	return nil
}
