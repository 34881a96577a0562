package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// HomeworkAssistanceRun is one end-to-end homework processing request. It
// exclusively owns its steps, extracted tasks and media rows; deleting the
// run cascades to all of them.
type HomeworkAssistanceRun struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OwnerUserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	FileID         *uuid.UUID     `gorm:"type:uuid;column:file_id;index" json:"file_id,omitempty"`
	State          RunState       `gorm:"column:state;not null;index" json:"state"`
	Labels         datatypes.JSON `gorm:"column:labels;type:jsonb" json:"labels"`
	Explanation    string         `gorm:"column:explanation" json:"explanation,omitempty"`
	SelectedTaskID *uuid.UUID     `gorm:"type:uuid;column:selected_task_id" json:"selected_task_id,omitempty"`
	// ExtractedTasksRaw keeps whatever trailing model output the task
	// extraction step could not parse into rows.
	ExtractedTasksRaw string `gorm:"column:extracted_tasks_raw" json:"extracted_tasks_raw,omitempty"`

	Steps []HomeworkAssistanceRunStep `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE" json:"steps,omitempty"`
	Tasks []HomeworkTask              `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE" json:"tasks,omitempty"`
	Media []Media                     `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE" json:"media,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (HomeworkAssistanceRun) TableName() string { return "homework_assistance_run" }

// Finished reports whether every owned step has SUCCEEDED. Only valid when
// Steps are loaded.
func (r *HomeworkAssistanceRun) Finished() bool {
	for i := range r.Steps {
		if r.Steps[i].State != StepStateSucceeded {
			return false
		}
	}
	return true
}

// FindStep returns the first loaded step with the given name, or nil. Runs
// are created with at most one step per name.
func (r *HomeworkAssistanceRun) FindStep(name StepName) *HomeworkAssistanceRunStep {
	for i := range r.Steps {
		if r.Steps[i].StepName == name {
			return &r.Steps[i]
		}
	}
	return nil
}

// LabelList decodes the JSONB labels column. A missing or malformed column
// reads as empty.
func (r *HomeworkAssistanceRun) LabelList() []string {
	return decodeStringList(r.Labels)
}

func (r *HomeworkAssistanceRun) SetLabels(labels []string) {
	r.Labels = encodeStringList(labels)
}

// HomeworkAssistanceRunStep is one named unit of work owned by exactly one
// run. Its state is mutated only by the logic bound to its step name and by
// the shared post-run hook.
type HomeworkAssistanceRunStep struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	RunID    uuid.UUID `gorm:"type:uuid;not null;index" json:"run_id"`
	StepName StepName  `gorm:"column:step_name;not null;index" json:"step_name"`
	State    StepState `gorm:"column:state;not null" json:"state"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (HomeworkAssistanceRunStep) TableName() string { return "homework_assistance_run_step" }

// HomeworkTask is one exercise parsed out of the uploaded document. Tasks are
// committed one at a time as the extraction stream yields them.
type HomeworkTask struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	RunID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"run_id"`
	Key         string         `gorm:"column:key;not null" json:"key"`
	Description string         `gorm:"column:description" json:"description"`
	Concepts    datatypes.JSON `gorm:"column:concepts;type:jsonb" json:"concepts"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (HomeworkTask) TableName() string { return "homework_task" }

func (t *HomeworkTask) ConceptList() []string {
	return decodeStringList(t.Concepts)
}

func (t *HomeworkTask) SetConcepts(concepts []string) {
	t.Concepts = encodeStringList(concepts)
}

// Media tracks one uploaded file: its blob-store path and upload outcome.
// The row exists before the physical upload completes.
type Media struct {
	ID           uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	RunID        *uuid.UUID       `gorm:"type:uuid;column:run_id;index" json:"run_id,omitempty"`
	StoragePath  string           `gorm:"column:storage_path;not null" json:"storage_path"`
	OriginalName string           `gorm:"column:original_name" json:"original_name,omitempty"`
	UploadState  MediaUploadState `gorm:"column:upload_state;not null" json:"upload_state"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Media) TableName() string { return "media" }

func decodeStringList(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func encodeStringList(v []string) datatypes.JSON {
	if v == nil {
		v = []string{}
	}
	b, _ := json.Marshal(v)
	return datatypes.JSON(b)
}
