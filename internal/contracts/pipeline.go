package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그, 태스크 종류, 실행 리포트에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   S0 → S1 → S2 → S3
//   Ingest  Features  Train  Predict

// Stage represents a pipeline stage
type Stage string

const (
	// StageIngest S0: 원천 데이터 수집
	// 책임: 가격 이력 수집, 트위터 export 업로드, 종목 리스트 업로드
	// 위치: internal/ingest/
	StageIngest Stage = "S0_INGEST"

	// StageFeatures S1: 정제 및 조인
	// 책임: 가격 변화율, 감성 점수 일별 집계, 날짜 기준 조인
	// 위치: internal/features/
	StageFeatures Stage = "S1_FEATURES"

	// StageTrain S2: 학습 및 예측 테이블 생성
	// 책임: 라벨 시프트, train/validation 분리, 랜덤 포레스트 학습
	// 위치: internal/forecast/analyze.go
	StageTrain Stage = "S2_TRAIN"

	// StagePredict S3: 단일 날짜 예측 조회
	// 책임: <ticker>_predict 조회, BUY/SELL 렌더링
	// 위치: internal/forecast/predict.go
	StagePredict Stage = "S3_PREDICT"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S0", "S1")
func (s Stage) ShortName() string {
	switch s {
	case StageIngest:
		return "S0"
	case StageFeatures:
		return "S1"
	case StageTrain:
		return "S2"
	case StagePredict:
		return "S3"
	default:
		return "UNKNOWN"
	}
}

// Description returns Korean description of the stage
func (s Stage) Description() string {
	switch s {
	case StageIngest:
		return "원천 데이터 수집"
	case StageFeatures:
		return "정제/조인"
	case StageTrain:
		return "학습/예측 테이블"
	case StagePredict:
		return "예측 조회"
	default:
		return "알 수 없음"
	}
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageIngest,
		StageFeatures,
		StageTrain,
		StagePredict,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}

// PipelineResult summarizes one executor run for the API, CLI and scheduler history
type PipelineResult struct {
	RunID    string                 `json:"run_id,omitempty"`
	Command  string                 `json:"command"`
	Success  bool                   `json:"success"`
	Tasks    int                    `json:"tasks"`
	Done     int                    `json:"done"`
	Skipped  int                    `json:"skipped"`
	Failed   int                    `json:"failed"`
	Blocked  int                    `json:"blocked"`
	Duration int64                  `json:"duration_ms"`
	Errors   []string               `json:"errors,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
