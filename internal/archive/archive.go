// Package archive exports confirmed deliveries as parquet for the
// reporting warehouse.
package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/SimonVuong/saute/internal/cloudwriter"
	"github.com/SimonVuong/saute/internal/models"
	"github.com/SimonVuong/saute/internal/repositories"
)

// ConfirmedMealRow is one confirmed delivery meal flattened for the
// warehouse.
type ConfirmedMealRow struct {
	OrderID      string  `parquet:"name=order_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	ConsumerID   string  `parquet:"name=consumer_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	InvoiceID    string  `parquet:"name=invoice_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	DeliveryDate int64   `parquet:"name=delivery_date, type=INT64"`
	DeliveryTime string  `parquet:"name=delivery_time, type=BYTE_ARRAY, convertedtype=UTF8"`
	MealID       string  `parquet:"name=meal_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	MealName     string  `parquet:"name=meal_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	RestID       string  `parquet:"name=rest_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	RestName     string  `parquet:"name=rest_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	PlanID       string  `parquet:"name=plan_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	PlanName     string  `parquet:"name=plan_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Quantity     int32   `parquet:"name=quantity, type=INT32"`
	TaxRate      float64 `parquet:"name=tax_rate, type=DOUBLE"`
}

// Archiver exports confirmed deliveries in a date range, locally or to
// cloud storage.
type Archiver struct {
	orders  repositories.OrderRepository
	factory cloudwriter.CloudWriterFactory // nil writes locally
	folder  string
	bucket  string
}

type ArchiverParams struct {
	Orders  repositories.OrderRepository
	Factory cloudwriter.CloudWriterFactory
	Folder  string
	Bucket  string
}

func New(p ArchiverParams) *Archiver {
	return &Archiver{
		orders:  p.Orders,
		factory: p.Factory,
		folder:  p.Folder,
		bucket:  p.Bucket,
	}
}

// Export writes every confirmed delivery meal in [start, end) to a
// parquet file named by the range. It returns the number of rows
// written.
func (a *Archiver) Export(ctx context.Context, start, end time.Time) (int, error) {
	orders, err := a.orders.ListByDeliveryDateRange(ctx, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to list orders: %w", err)
	}

	var rows []ConfirmedMealRow
	for _, order := range orders {
		for i := range order.Deliveries {
			d := &order.Deliveries[i]
			if d.Status != models.DeliveryStatusConfirmed && d.Status != models.DeliveryStatusComplete {
				continue
			}
			for _, m := range d.Meals {
				rows = append(rows, ConfirmedMealRow{
					OrderID:      order.ID,
					ConsumerID:   order.ConsumerID,
					InvoiceID:    order.InvoiceID,
					DeliveryDate: d.DeliveryDate,
					DeliveryTime: d.DeliveryTime,
					MealID:       m.MealID,
					MealName:     m.Name,
					RestID:       m.RestID,
					RestName:     m.RestName,
					PlanID:       m.PlanID,
					PlanName:     m.PlanName,
					Quantity:     int32(m.Quantity),
					TaxRate:      m.TaxRate,
				})
			}
		}
	}

	name := fmt.Sprintf("confirmed_meals_%s_%s.parquet", start.Format("20060102"), end.Format("20060102"))
	fw, err := a.newParquetFile(name)
	if err != nil {
		return 0, err
	}

	pw, err := writer.NewParquetWriter(fw, new(ConfirmedMealRow), 4)
	if err != nil {
		fw.Close()
		return 0, fmt.Errorf("failed to create parquet writer: %w", err)
	}

	bar := progressbar.Default(int64(len(rows)), "archiving")
	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			fw.Close()
			return 0, fmt.Errorf("failed to write parquet row: %w", err)
		}
		bar.Add(1)
	}
	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return 0, fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	if err := fw.Close(); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (a *Archiver) newParquetFile(name string) (source.ParquetFile, error) {
	if a.factory != nil {
		cw, err := a.factory.NewWriter(a.bucket, filepath.Join(a.folder, name))
		if err != nil {
			return nil, fmt.Errorf("failed to create cloud writer: %w", err)
		}
		return &cloudParquetFile{cloudWriter: cw}, nil
	}
	if err := os.MkdirAll(a.folder, os.ModePerm); err != nil {
		return nil, err
	}
	fw, err := local.NewLocalFileWriter(filepath.Join(a.folder, name))
	if err != nil {
		return nil, fmt.Errorf("failed to create local file writer: %w", err)
	}
	return fw, nil
}

// cloudParquetFile adapts a CloudWriter to the parquet source
// interface. The writer is append-only: reads and seeking from the end
// are unsupported.
type cloudParquetFile struct {
	cloudWriter cloudwriter.CloudWriter
	offset      int64
}

func (c *cloudParquetFile) Open(name string) (source.ParquetFile, error) {
	return c, nil
}

func (c *cloudParquetFile) Create(name string) (source.ParquetFile, error) {
	return c, nil
}

func (c *cloudParquetFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		c.offset = offset
	case io.SeekCurrent:
		c.offset += offset
	case io.SeekEnd:
		return 0, fmt.Errorf("seek from end not supported for cloud storage")
	}
	return c.offset, nil
}

func (c *cloudParquetFile) Read(p []byte) (int, error) {
	return 0, fmt.Errorf("read not supported for cloud storage")
}

func (c *cloudParquetFile) Write(p []byte) (int, error) {
	return c.cloudWriter.Write(p)
}

func (c *cloudParquetFile) Close() error {
	return c.cloudWriter.Close()
}
