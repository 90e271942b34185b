package cli

import (
	"bufio"
	"errors"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rl1809/cash-dispenser/internal/app"
	"github.com/rl1809/cash-dispenser/internal/core/domain"
)

var errBadInput = errors.New("not an integer")

const separator = "----------------------------------------"

// NewSessionCommand runs the interactive teller: it asks for the starting count of every
// configured denomination, then serves menu choices until the user leaves.
func NewSessionCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Interactive withdrawal session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := &session{
				root: root,
				in:   newTokenReader(cmd.InOrStdin()),
				out:  newPrinter(cmd.OutOrStdout()),
			}
			return s.run()
		},
	}
}

type session struct {
	root *RootOptions
	in   *tokenReader
	out  *printer
}

func (s *session) run() error {
	levels := make([]domain.StockLevel, len(s.root.Config.Notes))
	for i, l := range s.root.Config.Notes {
		s.out.printf("Enter the number of $%d notes:\n", int(l.Denomination))
		n, err := s.in.nextInt()
		if err != nil || n < 0 {
			s.out.printf("Invalid starting count, the dispenser could not be set up. Please restart.\n")
			return nil
		}
		levels[i] = domain.StockLevel{Denomination: l.Denomination, Count: n}
	}

	cfg := *s.root.Config
	cfg.Notes = levels
	engine, err := app.NewEngine(&cfg, s.root.Logger)
	if err != nil {
		return err
	}

	for {
		s.out.printf("Choose an option:\n")
		s.out.printf("    1) Withdraw money\n")
		s.out.printf("    2) Show notes available in the dispenser\n")

		option, err := s.in.nextInt()
		if err != nil {
			s.endOnError(err)
			break
		}

		switch option {
		case 1:
			s.out.printf("How much would you like to withdraw?\n")
			amount, err := s.in.nextInt()
			if err != nil {
				s.endOnError(err)
				return s.farewell()
			}
			dispensed, err := engine.Withdraw(amount)
			if err != nil {
				s.out.withdrawError(err)
			} else {
				s.out.dispensed(dispensed)
			}
		case 2:
			s.out.inventory(engine.Inventory())
		default:
			s.out.printf("Unknown option, please pick one from the list.\n")
		}

		s.out.printf("Show the options again? Enter 1 for yes or 0 to leave.\n")
		again, err := s.in.nextInt()
		if err != nil {
			s.endOnError(err)
			break
		}
		s.out.printf("\n%s\n\n", separator)
		if again != 1 {
			break
		}
	}

	return s.farewell()
}

func (s *session) endOnError(err error) {
	if errors.Is(err, errBadInput) {
		s.out.printf("Incorrect input. Please restart and try again.\n")
	}
}

func (s *session) farewell() error {
	s.out.printf("Thank you for using the dispenser. Goodbye!\n")
	return nil
}

// tokenReader reads whitespace separated integers.
type tokenReader struct {
	scanner *bufio.Scanner
}

func newTokenReader(r io.Reader) *tokenReader {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)
	return &tokenReader{scanner: scanner}
}

func (t *tokenReader) nextInt() (int, error) {
	if !t.scanner.Scan() {
		if err := t.scanner.Err(); err != nil {
			return 0, err
		}
		return 0, io.EOF
	}
	n, err := strconv.Atoi(t.scanner.Text())
	if err != nil {
		return 0, errBadInput
	}
	return n, nil
}
