// Package export renders a worker's appointments and weekly schedule as an xlsx workbook.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"zapis/internal/domain"
	"zapis/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	appointmentsSheet = "Записи"
	scheduleSheet     = "Расписание"
)

var appointmentColumns = []string{"Дата", "Начало", "Конец", "Услуга", "Клиент", "Статус", "Версия"}

type Exporter struct {
	bookings  domain.BookingService
	schedules domain.ScheduleService
	directory domain.DirectoryService
	logger    *zerolog.Logger
}

func NewExporter(bookings domain.BookingService, schedules domain.ScheduleService, directory domain.DirectoryService, logger *zerolog.Logger) *Exporter {
	return &Exporter{bookings: bookings, schedules: schedules, directory: directory, logger: logger}
}

// WorkerWorkbook строит книгу с записями и расписанием работника.
// Вызывающий должен закрыть файл.
func (e *Exporter) WorkerWorkbook(ctx context.Context, workerID int64, filter models.DateFilter) (*excelize.File, error) {
	worker, err := e.directory.GetWorker(ctx, workerID)
	if err != nil {
		return nil, err
	}
	appointments, err := e.bookings.ListWorkerAppointments(ctx, workerID, filter)
	if err != nil {
		return nil, fmt.Errorf("error getting appointments: %w", err)
	}
	schedules, err := e.schedules.ListWorkerSchedules(ctx, workerID)
	if err != nil {
		return nil, fmt.Errorf("error getting schedules: %w", err)
	}
	services, err := e.directory.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting services: %w", err)
	}
	serviceNames := make(map[int64]string, len(services))
	for _, s := range services {
		serviceNames[s.ID] = s.Name
	}

	f := excelize.NewFile()
	index, err := f.NewSheet(appointmentsSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	title := fmt.Sprintf("%s (%s), период: %s", worker.FullName(), worker.Profession, describeFilter(filter))
	if err := writeTitle(f, appointmentsSheet, title, len(appointmentColumns)); err != nil {
		f.Close()
		return nil, err
	}
	writeHeader(f, appointmentsSheet, appointmentColumns)
	writeAppointments(f, appointments, serviceNames)

	if _, err := f.NewSheet(scheduleSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	writeHeader(f, scheduleSheet, []string{"День", "Начало", "Конец", "Локация"})
	writeSchedules(f, schedules)

	_ = f.SetColWidth(appointmentsSheet, "A", "C", 12)
	_ = f.SetColWidth(appointmentsSheet, "D", "E", 22)
	_ = f.SetColWidth(scheduleSheet, "A", "D", 14)
	_ = f.DeleteSheet("Sheet1")

	return f, nil
}

// SaveWorkerWorkbook сохраняет книгу в dir и возвращает путь к файлу
func (e *Exporter) SaveWorkerWorkbook(ctx context.Context, dir string, workerID int64, filter models.DateFilter) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	f, err := e.WorkerWorkbook(ctx, workerID, filter)
	if err != nil {
		return "", err
	}
	defer f.Close()

	path := filepath.Join(dir, FileName(workerID, filter))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}

	e.logger.Info().Str("file_path", path).Int64("worker_id", workerID).Msg("Excel file created")
	return path, nil
}

func FileName(workerID int64, filter models.DateFilter) string {
	return fmt.Sprintf("worker_%d_%s.xlsx", workerID, strings.ReplaceAll(describeFilter(filter), " ", "_"))
}

func describeFilter(filter models.DateFilter) string {
	switch {
	case filter.Empty():
		return "all"
	case filter.Specific != nil:
		return filter.Specific.Format(models.DateLayout)
	case filter.Lower != nil && filter.Upper != nil:
		return filter.Lower.Format(models.DateLayout) + "_" + filter.Upper.Format(models.DateLayout)
	case filter.Lower != nil:
		return "from_" + filter.Lower.Format(models.DateLayout)
	default:
		return "to_" + filter.Upper.Format(models.DateLayout)
	}
}

func writeTitle(f *excelize.File, sheet, title string, width int) error {
	_ = f.SetCellValue(sheet, "A1", title)
	lastCell, _ := excelize.CoordinatesToCellName(width, 1)
	if err := f.MergeCell(sheet, "A1", lastCell); err != nil {
		return fmt.Errorf("error merging title: %w", err)
	}
	style, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	return f.SetCellStyle(sheet, "A1", "A1", style)
}

func writeHeader(f *excelize.File, sheet string, columns []string) {
	row := 2
	if sheet == scheduleSheet {
		row = 1
	}
	style, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, name := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, name)
		_ = f.SetCellStyle(sheet, cell, cell, style)
	}
}

func writeAppointments(f *excelize.File, appointments []*models.Appointment, serviceNames map[int64]string) {
	cancelled, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Strike: true, Color: "#808080"},
	})

	for i, a := range appointments {
		row := i + 3
		values := []interface{}{
			a.ScheduledFor.Format(models.DateLayout),
			a.ScheduledFor.Format("15:04"),
			a.EndTime().Format("15:04"),
			serviceNames[a.ServiceID],
			a.ClientID,
			a.Status,
			a.Version,
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetSheetRow(appointmentsSheet, start, &values)

		if a.Status == models.StatusCancelled {
			end, _ := excelize.CoordinatesToCellName(len(values), row)
			_ = f.SetCellStyle(appointmentsSheet, start, end, cancelled)
		}
	}
}

func writeSchedules(f *excelize.File, schedules []*models.ScheduleEntry) {
	sorted := append([]*models.ScheduleEntry(nil), schedules...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].DayOfWeek != sorted[j].DayOfWeek {
			return sorted[i].DayOfWeek < sorted[j].DayOfWeek
		}
		return sorted[i].Window.Start.Before(sorted[j].Window.Start)
	})

	for i, e := range sorted {
		values := []interface{}{e.DayOfWeek.String(), e.Window.Start.String(), e.Window.End.String(), e.LocationID}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = f.SetSheetRow(scheduleSheet, cell, &values)
	}
}
