package disk

import "fmt"

type OpenImageError struct {
	device string
	err    error
}

func (e *OpenImageError) Error() string {
	return fmt.Sprintf("unable to open image %s: %v", e.device, e.err)
}

func (e *OpenImageError) Unwrap() error {
	return e.err
}

func NewOpenImageError(device string, err error) *OpenImageError {
	return &OpenImageError{
		device: device,
		err:    err,
	}
}

type OpenVolumeError struct {
	device string
	err    error
}

func (e *OpenVolumeError) Error() string {
	return fmt.Sprintf("unable to open volume on %s: %v", e.device, e.err)
}

func (e *OpenVolumeError) Unwrap() error {
	return e.err
}

func NewOpenVolumeError(device string, err error) *OpenVolumeError {
	return &OpenVolumeError{
		device: device,
		err:    err,
	}
}

type UnknownFilesystemError struct {
	partition uint64
}

func (e *UnknownFilesystemError) Error() string {
	return fmt.Sprintf("unknown filesystem type on partition %d", e.partition)
}

func NewUnknownFilesystemError(partition uint64) *UnknownFilesystemError {
	return &UnknownFilesystemError{
		partition: partition,
	}
}

// NotFoundError is returned when a path or inode does not exist in a filesystem
type NotFoundError struct {
	what string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.what)
}

func NewNotFoundError(what string) *NotFoundError {
	return &NotFoundError{
		what: what,
	}
}
