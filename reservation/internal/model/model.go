package model

import (
	"time"
)

type Reservation struct {
	ID           string    `json:"id" db:"id"`
	AcademicYear int       `json:"academicYear" db:"academic_year"`
	IsValid      bool      `json:"isValid" db:"is_valid"`
	StudentID    int64     `json:"studentId" db:"student_id"`
	RoomID       int64     `json:"roomId" db:"room_id"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

type CreateReservationRequest struct {
	StudentID    int64 `json:"studentId" validate:"required,gt=0"`
	RoomID       int64 `json:"roomId" validate:"required,gt=0"`
	AcademicYear int   `json:"academicYear" validate:"required,gte=1900,lte=9999"`
}

// Student is the part of a student record this service reads and writes.
type Student struct {
	ID             int64    `json:"id"`
	ReservationIDs []string `json:"reservationIds"`
}

// Room is the part of a room record this service reads and writes.
type Room struct {
	ID             int64    `json:"id"`
	Available      bool     `json:"available"`
	ReservationIDs []string `json:"reservationIds"`
}

type SyncTarget string

const (
	SyncTargetStudent SyncTarget = "STUDENT"
	SyncTargetRoom    SyncTarget = "ROOM"
)

type SyncOp string

const (
	SyncOpAttach       SyncOp = "ATTACH"
	SyncOpDetach       SyncOp = "DETACH"
	SyncOpAvailability SyncOp = "AVAILABILITY"
)

// DirectorySync is a directory update that failed synchronously and is
// replayed from the queue. Replays are idempotent.
type DirectorySync struct {
	Target        SyncTarget `json:"target"`
	Op            SyncOp     `json:"op"`
	TargetID      int64      `json:"targetId"`
	ReservationID string     `json:"reservationId,omitempty"`
	Available     bool       `json:"available"`
}
