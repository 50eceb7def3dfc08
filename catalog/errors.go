package catalog

import (
	"errors"
	"fmt"
)

// Each catalog failure mode is its own type, carrying exactly the context
// needed to reconstruct it, rather than a single coded error — the catalog
// distinguishes "which natural key collided" from "which cap was hit" by
// field shape, not by a shared code enum.

// NameExistsError is returned when a Namespace create collides with an
// existing name.
type NameExistsError struct {
	Name string
}

func (e *NameExistsError) Error() string {
	return fmt.Sprintf("name %q already exists", e.Name)
}

// NamespaceNotFoundByNameError is returned by namespace lookups and limit
// updates against an unknown name.
type NamespaceNotFoundByNameError struct {
	Name string
}

func (e *NamespaceNotFoundByNameError) Error() string {
	return fmt.Sprintf("namespace %q not found", e.Name)
}

// TableNotFoundError is returned when an operation references a TableID
// that does not exist.
type TableNotFoundError struct {
	ID TableID
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("table %d not found", e.ID)
}

// TableCreateLimitError is returned when creating a table would exceed its
// namespace's max_tables cap.
type TableCreateLimitError struct {
	TableName   string
	NamespaceID NamespaceID
}

func (e *TableCreateLimitError) Error() string {
	return fmt.Sprintf("table create limit reached for namespace %d, cannot create %q", e.NamespaceID, e.TableName)
}

// ColumnCreateLimitError is returned when creating a column would exceed
// its table's max_columns_per_table cap.
type ColumnCreateLimitError struct {
	ColumnName string
	TableID    TableID
}

func (e *ColumnCreateLimitError) Error() string {
	return fmt.Sprintf("column create limit reached for table %d, cannot create %q", e.TableID, e.ColumnName)
}

// ColumnTypeMismatchError is returned when create_or_get is called for an
// existing column name with a different ColumnType than it was created
// with. Column type is immutable once set.
type ColumnTypeMismatchError struct {
	Name     string
	Existing ColumnType
	New      ColumnType
}

func (e *ColumnTypeMismatchError) Error() string {
	return fmt.Sprintf("column %q already exists with type %s, cannot change to %s", e.Name, e.Existing, e.New)
}

// PartitionNotFoundError is returned when an operation references a
// PartitionID that does not exist.
type PartitionNotFoundError struct {
	ID PartitionID
}

func (e *PartitionNotFoundError) Error() string {
	return fmt.Sprintf("partition %d not found", e.ID)
}

// TombstoneNotFoundError is returned when an operation references a
// TombstoneID that does not exist.
type TombstoneNotFoundError struct {
	ID TombstoneID
}

func (e *TombstoneNotFoundError) Error() string {
	return fmt.Sprintf("tombstone %d not found", e.ID)
}

// FileExistsError is returned when a ParquetFile create collides with an
// existing ObjectStoreID.
type FileExistsError struct {
	ObjectStoreID [16]byte
}

func (e *FileExistsError) Error() string {
	return fmt.Sprintf("parquet file with object store id %x already exists", e.ObjectStoreID)
}

// FileNotFoundError is returned when an operation references a
// ParquetFileID that does not exist.
type FileNotFoundError struct {
	ID ParquetFileID
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("parquet file %d not found", e.ID)
}

// ParquetRecordNotFoundError is returned by flag_for_delete when the id does
// not refer to an existing file.
type ParquetRecordNotFoundError struct {
	ID ParquetFileID
}

func (e *ParquetRecordNotFoundError) Error() string {
	return fmt.Sprintf("parquet record %d not found", e.ID)
}

// ProcessTombstoneExistsError is returned when a ProcessedTombstone is
// created for a (file, tombstone) pair that is already recorded.
type ProcessTombstoneExistsError struct {
	ParquetFileID ParquetFileID
	TombstoneID   TombstoneID
}

func (e *ProcessTombstoneExistsError) Error() string {
	return fmt.Sprintf("processed tombstone already exists for file %d, tombstone %d", e.ParquetFileID, e.TombstoneID)
}

// InvalidValueError is returned when a count does not fit in the return
// type's range (signed 64-bit).
type InvalidValueError struct {
	Value int
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("value %d is not a valid int64", e.Value)
}

// IsNameExists reports whether err is (or wraps) a *NameExistsError.
func IsNameExists(err error) bool {
	var target *NameExistsError
	return errors.As(err, &target)
}

// IsNamespaceNotFoundByName reports whether err is (or wraps) a
// *NamespaceNotFoundByNameError.
func IsNamespaceNotFoundByName(err error) bool {
	var target *NamespaceNotFoundByNameError
	return errors.As(err, &target)
}

// IsTableNotFound reports whether err is (or wraps) a *TableNotFoundError.
func IsTableNotFound(err error) bool {
	var target *TableNotFoundError
	return errors.As(err, &target)
}

// IsTableCreateLimit reports whether err is (or wraps) a
// *TableCreateLimitError.
func IsTableCreateLimit(err error) bool {
	var target *TableCreateLimitError
	return errors.As(err, &target)
}

// IsColumnCreateLimit reports whether err is (or wraps) a
// *ColumnCreateLimitError.
func IsColumnCreateLimit(err error) bool {
	var target *ColumnCreateLimitError
	return errors.As(err, &target)
}

// IsColumnTypeMismatch reports whether err is (or wraps) a
// *ColumnTypeMismatchError.
func IsColumnTypeMismatch(err error) bool {
	var target *ColumnTypeMismatchError
	return errors.As(err, &target)
}

// IsPartitionNotFound reports whether err is (or wraps) a
// *PartitionNotFoundError.
func IsPartitionNotFound(err error) bool {
	var target *PartitionNotFoundError
	return errors.As(err, &target)
}

// IsTombstoneNotFound reports whether err is (or wraps) a
// *TombstoneNotFoundError.
func IsTombstoneNotFound(err error) bool {
	var target *TombstoneNotFoundError
	return errors.As(err, &target)
}

// IsFileExists reports whether err is (or wraps) a *FileExistsError.
func IsFileExists(err error) bool {
	var target *FileExistsError
	return errors.As(err, &target)
}

// IsFileNotFound reports whether err is (or wraps) a *FileNotFoundError.
func IsFileNotFound(err error) bool {
	var target *FileNotFoundError
	return errors.As(err, &target)
}
