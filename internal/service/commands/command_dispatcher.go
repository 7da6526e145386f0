package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/inventario/internal/domain/models"
	"github.com/mamadbah2/inventario/internal/repository/flatfile"
	"github.com/mamadbah2/inventario/internal/service/reporting"
)

// ErrInvalidInput indicates a prompt answer could not be parsed.
var ErrInvalidInput = errors.New("invalid input")

// Store is the record store driven by the menu.
type Store interface {
	Add(p models.Product) error
	Update(id string, changes models.ProductUpdate) (models.Product, error)
	Delete(id string) (models.Product, error)
	Find(id string) (models.Product, bool)
	Search(fn func(models.Product) bool) []models.Product
	List() iter.Seq[models.Product]
	Reload() (flatfile.LoadReport, error)
	Close() error
}

// ReportingAdapter defines the reporting functions required by the menu.
type ReportingAdapter interface {
	Generate(now time.Time) models.StockReport
}

// Service runs the interactive inventory menu.
type Service struct {
	store     Store
	reporting ReportingAdapter
	in        *bufio.Reader
	out       io.Writer
	logger    *zap.Logger
	now       func() time.Time
}

// NewService constructs a menu reading answers from in and writing to out.
func NewService(store Store, reporting ReportingAdapter, in io.Reader, out io.Writer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		reporting: reporting,
		in:        bufio.NewReader(in),
		out:       out,
		logger:    logger,
		now:       time.Now,
	}
}

// Run shows the menu until the user exits, input ends or ctx is cancelled,
// then closes the store so pending changes get a last chance to be written.
func (s *Service) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		s.printMenu()

		answer, err := s.prompt("Choose an option: ")
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		choice := models.ParseMenuChoice(answer)
		if choice == models.ChoiceExit {
			break
		}
		s.HandleChoice(choice)
	}

	if err := s.store.Close(); err != nil {
		s.printf("[ERROR] Could not save pending changes: %v\n", err)
		return err
	}
	return nil
}

// HandleChoice runs one menu action. Store errors are reported to the user
// and never abort the menu.
func (s *Service) HandleChoice(choice models.MenuChoice) {
	s.logger.Debug("dispatching menu choice", zap.String("choice", string(choice)))

	var err error
	switch choice {
	case models.ChoiceList:
		s.printTable(s.store.List())
	case models.ChoiceAdd:
		err = s.add()
	case models.ChoiceUpdate:
		err = s.update()
	case models.ChoiceDelete:
		err = s.delete()
	case models.ChoiceFind:
		err = s.find()
	case models.ChoiceReload:
		err = s.reload()
	case models.ChoiceSearchByName:
		err = s.searchByName()
	case models.ChoiceReport:
		s.report()
	default:
		s.printf("Invalid option.\n")
	}

	if err != nil && !errors.Is(err, io.EOF) {
		s.printf("%s\n", describe(err))
	}
}

func (s *Service) add() error {
	id, err := s.prompt("ID: ")
	if err != nil {
		return err
	}
	name, err := s.prompt("Name: ")
	if err != nil {
		return err
	}
	quantity, err := s.promptInt("Quantity: ", nil)
	if err != nil {
		return err
	}
	price, err := s.promptFloat("Price: ", nil)
	if err != nil {
		return err
	}

	p := models.Product{ID: id, Name: name, Quantity: quantity, Price: price}
	if err := s.store.Add(p); err != nil {
		return err
	}
	s.printf("[OK] Product '%s' added.\n", p.Name)
	return nil
}

func (s *Service) update() error {
	id, err := s.prompt("ID to update: ")
	if err != nil {
		return err
	}
	current, ok := s.store.Find(id)
	if !ok {
		return fmt.Errorf("%w: %s", flatfile.ErrNotFound, id)
	}

	var changes models.ProductUpdate
	name, err := s.prompt(fmt.Sprintf("Name [%s]: ", current.Name))
	if err != nil {
		return err
	}
	if name != "" {
		changes.Name = &name
	}
	quantity, err := s.promptInt(fmt.Sprintf("Quantity [%d]: ", current.Quantity), &current.Quantity)
	if err != nil {
		return err
	}
	if quantity != current.Quantity {
		changes.Quantity = &quantity
	}
	price, err := s.promptFloat(fmt.Sprintf("Price [%s]: ", formatPrice(current.Price)), &current.Price)
	if err != nil {
		return err
	}
	if price != current.Price {
		changes.Price = &price
	}

	if _, err := s.store.Update(id, changes); err != nil {
		return err
	}
	s.printf("[OK] Product '%s' updated.\n", id)
	return nil
}

func (s *Service) delete() error {
	id, err := s.prompt("ID to delete: ")
	if err != nil {
		return err
	}
	confirm, err := s.prompt("Delete? (y/n): ")
	if err != nil {
		return err
	}
	if !isYes(confirm) {
		s.printf("Cancelled.\n")
		return nil
	}

	removed, err := s.store.Delete(id)
	if err != nil {
		return err
	}
	s.printf("[OK] Product '%s' deleted.\n", removed.Name)
	return nil
}

func (s *Service) find() error {
	id, err := s.prompt("ID to find: ")
	if err != nil {
		return err
	}
	if p, ok := s.store.Find(id); ok {
		s.printf("%s\n", p)
	} else {
		s.printf("Not found.\n")
	}
	return nil
}

func (s *Service) searchByName() error {
	query, err := s.prompt("Name contains: ")
	if err != nil {
		return err
	}
	needle := strings.ToLower(query)
	matches := s.store.Search(func(p models.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), needle)
	})
	if len(matches) == 0 {
		s.printf("Not found.\n")
		return nil
	}
	s.printTable(func(yield func(models.Product) bool) {
		for _, p := range matches {
			if !yield(p) {
				return
			}
		}
	})
	return nil
}

func (s *Service) reload() error {
	report, err := s.store.Reload()
	if err != nil {
		s.printf("[ERROR] Reload failed, keeping the current data: %v\n", err)
		return nil
	}
	s.printf("[INFO] %d products loaded.", report.Loaded)
	if report.Skipped > 0 {
		s.printf(" %d malformed lines skipped.", report.Skipped)
	}
	s.printf("\n")
	return nil
}

func (s *Service) report() {
	if s.reporting == nil {
		s.printf("Reports are not available.\n")
		return
	}
	s.printf("%s\n", reporting.Format(s.reporting.Generate(s.now())))
}

func (s *Service) printMenu() {
	s.printf("\n--- INVENTORY MENU ---\n")
	for _, entry := range models.MenuEntries {
		s.printf("%s. %s\n", entry.Choice, entry.Label)
	}
}

func (s *Service) printTable(products iter.Seq[models.Product]) {
	rows := 0
	for p := range products {
		if rows == 0 {
			s.printf("%-10s | %-30s | %6s | %8s\n", "ID", "Name", "Qty", "Price")
			s.printf("%s\n", strings.Repeat("-", 62))
		}
		s.printf("%-10s | %-30s | %6d | %8.2f\n", p.ID, p.Name, p.Quantity, p.Price)
		rows++
	}
	if rows == 0 {
		s.printf("[INFO] Inventory is empty.\n")
	}
}

// prompt writes label and returns the trimmed answer. A final line without a
// newline is returned; io.EOF is only reported when nothing was read.
func (s *Service) prompt(label string) (string, error) {
	s.printf("%s", label)
	line, err := s.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (s *Service) promptInt(label string, fallback *int) (int, error) {
	answer, err := s.prompt(label)
	if err != nil {
		return 0, err
	}
	if answer == "" && fallback != nil {
		return *fallback, nil
	}
	n, err := strconv.Atoi(answer)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a whole number", ErrInvalidInput, answer)
	}
	return n, nil
}

func (s *Service) promptFloat(label string, fallback *float64) (float64, error) {
	answer, err := s.prompt(label)
	if err != nil {
		return 0, err
	}
	if answer == "" && fallback != nil {
		return *fallback, nil
	}
	f, err := strconv.ParseFloat(answer, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidInput, answer)
	}
	return f, nil
}

func (s *Service) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}

func describe(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, flatfile.ErrInvalidProduct):
		return "[ERROR] " + err.Error()
	case errors.Is(err, flatfile.ErrNotFound):
		return "[WARN] No product with that id: " + err.Error()
	case errors.Is(err, flatfile.ErrDuplicateKey):
		return "[WARN] A product with that id already exists: " + err.Error()
	case errors.Is(err, flatfile.ErrPermission):
		return "[ERROR] Access to the inventory file was denied: " + err.Error()
	case errors.Is(err, flatfile.ErrIO):
		return "[ERROR] Inventory file could not be saved; changes are kept in memory: " + err.Error()
	default:
		return "[ERROR] " + err.Error()
	}
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes", "s", "si", "sí":
		return true
	}
	return false
}

func formatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', -1, 64)
}
