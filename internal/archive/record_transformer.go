package archive

import (
	"github.com/grycap/onetrigger/internal/models"
)

// TransformReport builds one archive row per new file, joined with its delivery outcome
func TransformReport(report models.CycleReport) []models.ParquetDetectedEvent {
	if len(report.NewFiles) == 0 {
		return nil
	}

	deliveries := make(map[models.FileIdentity]models.DeliveryResult, len(report.Deliveries))
	for _, d := range report.Deliveries {
		deliveries[d.Event.ID] = d
	}

	detectedAt := report.FinishedAt.UnixMilli()
	rows := make([]models.ParquetDetectedEvent, 0, len(report.NewFiles))
	for _, file := range report.NewFiles {
		row := models.ParquetDetectedEvent{
			RunID:      report.RunID,
			Cycle:      int64(report.Cycle),
			ObjectID:   string(file.ID),
			Path:       file.Path,
			FileName:   file.Name(),
			DetectedAt: detectedAt,
		}
		if d, ok := deliveries[file.ID]; ok {
			row.WebhookURL = stringPtrOrNil(d.WebhookURL)
			row.DeliveryID = stringPtrOrNil(d.DeliveryID)
			row.StatusCode = int32PtrOrNilZero(int32(d.StatusCode))
			if d.Err != nil {
				row.DeliveryError = stringPtrOrNil(d.Err.Error())
			}
			if ms := d.Duration.Milliseconds(); ms > 0 {
				row.DeliveryMillis = &ms
			}
			row.DeliverySuccess = d.Succeeded()
		}
		rows = append(rows, row)
	}
	return rows
}

func stringPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func int32PtrOrNilZero(i int32) *int32 {
	if i == 0 {
		return nil
	}
	return &i
}
