package cli

import (
	"errors"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rl1809/cash-dispenser/internal/core/dispenser"
	"github.com/rl1809/cash-dispenser/internal/core/domain"
)

type printer struct {
	w io.Writer
	p *message.Printer
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w, p: message.NewPrinter(language.English)}
}

func (p *printer) printf(format string, args ...any) {
	p.p.Fprintf(p.w, format, args...)
}

func (p *printer) inventory(snap domain.InventorySnapshot) {
	for _, l := range snap.Levels {
		p.printf("Number of $%d bills available: %d\n", int(l.Denomination), l.Count)
	}
	p.printf("Total available: $%d\n", snap.Balance())
}

func (p *printer) dispensed(d domain.Dispensed) {
	for _, n := range d.NonZero() {
		p.printf("Dispensing %d x $%d notes.\n", n.Count, int(n.Denomination))
	}
}

func (p *printer) withdrawError(err error) {
	p.printf("Cannot complete request: %s\n", failureMessage(err))
}

func failureMessage(err error) string {
	switch {
	case errors.Is(err, dispenser.ErrUnsupportedAmount):
		return "the amount cannot be made with the notes this dispenser holds"
	case errors.Is(err, dispenser.ErrInsufficientFunds):
		return "not enough notes left in the dispenser"
	}
	return err.Error()
}
