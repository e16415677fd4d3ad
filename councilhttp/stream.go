package councilhttp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mstolarz/council"
)

// maxRecordBytes bounds a single decoded record. Stage payloads carry the
// full text of every model's answer, so the limit is generous.
const maxRecordBytes = 4 << 20

// stream implements [council.EventStream] by decoding `data: {json}`
// records from an HTTP response body.
type stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	ctx     context.Context
	log     logrus.FieldLogger
	closed  bool
	done    bool
}

// Interface compliance check.
var _ council.EventStream = (*stream)(nil)

func newStream(ctx context.Context, body io.ReadCloser, log logrus.FieldLogger) *stream {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, 64*1024), maxRecordBytes)
	return &stream{
		body:    body,
		scanner: sc,
		ctx:     ctx,
		log:     log,
	}
}

// Next reads the next semantic event. A malformed record is logged and
// skipped; decoding continues with the following record. Returns io.EOF
// when the channel closes normally.
func (s *stream) Next() (council.Event, error) {
	if s.closed {
		return nil, council.ErrStreamClosed
	}
	if s.done {
		return nil, io.EOF
	}
	for {
		data, err := s.readRecord()
		if err != nil {
			if err == io.EOF {
				s.done = true
				return nil, io.EOF
			}
			if ctxErr := s.ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("read event record: %w", err)
		}

		evt, err := decodeEvent(data)
		if err != nil {
			// One malformed record never terminates the sequence.
			s.log.Warnf("dropping malformed event record: %v", err)
			continue
		}
		return evt, nil
	}
}

// readRecord assembles one record from the line stream. Records are
// `data: ` prefixed JSON separated by blank lines; the scanner reassembles
// a record that arrived split across delivery chunks. Comment lines and
// unknown fields are ignored.
func (s *stream) readRecord() (string, error) {
	var dataBuf strings.Builder
	for s.scanner.Scan() {
		line := s.scanner.Text()

		if line == "" {
			if dataBuf.Len() > 0 {
				return dataBuf.String(), nil
			}
			continue
		}

		if strings.HasPrefix(line, "data: ") {
			if dataBuf.Len() > 0 {
				dataBuf.WriteByte('\n')
			}
			dataBuf.WriteString(strings.TrimPrefix(line, "data: "))
		}
	}

	if err := s.scanner.Err(); err != nil {
		return "", err
	}

	// Scanner exhausted without error = EOF. A trailing record without a
	// final blank line still counts.
	if dataBuf.Len() > 0 {
		return dataBuf.String(), nil
	}
	return "", io.EOF
}

// Close closes the underlying response body. Later Next calls fail with
// ErrStreamClosed.
func (s *stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}

// decodeEvent maps one raw record to a semantic event. Unrecognized types
// decode to [council.EventUnknown] so the reducer can flag them; a payload
// that fails to parse is an error (the caller drops the record).
func decodeEvent(data string) (council.Event, error) {
	var env sseEnvelope
	if err := json.Unmarshal([]byte(data), &env); err != nil {
		return nil, fmt.Errorf("parse record: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("record missing type: %.80q", data)
	}

	switch env.Type {
	case "simple_mode_start":
		return council.EventSimpleModeStart{}, nil

	case "simple_mode_complete":
		var f wireFinal
		if err := json.Unmarshal(env.Data, &f); err != nil {
			return nil, fmt.Errorf("parse simple_mode_complete: %w", err)
		}
		return council.EventSimpleModeComplete{Final: f.final()}, nil

	case "stage1_start":
		return council.EventStage1Start{Models: env.Models}, nil

	case "stage1_complete":
		var rs []wireStageResponse
		if err := json.Unmarshal(env.Data, &rs); err != nil {
			return nil, fmt.Errorf("parse stage1_complete: %w", err)
		}
		responses := make([]council.Response, len(rs))
		for i, r := range rs {
			responses[i] = r.response()
		}
		return council.EventStage1Complete{Responses: responses}, nil

	case "stage2_start":
		return council.EventStage2Start{}, nil

	case "stage2_complete":
		var rs []wireStageResponse
		if err := json.Unmarshal(env.Data, &rs); err != nil {
			return nil, fmt.Errorf("parse stage2_complete: %w", err)
		}
		rankings := make([]council.Ranking, len(rs))
		for i, r := range rs {
			rankings[i] = r.ranking()
		}
		return council.EventStage2Complete{
			Rankings: rankings,
			Metadata: env.Metadata.metadata(),
		}, nil

	case "stage3_start":
		return council.EventStage3Start{}, nil

	case "stage3_complete":
		var f wireFinal
		if err := json.Unmarshal(env.Data, &f); err != nil {
			return nil, fmt.Errorf("parse stage3_complete: %w", err)
		}
		return council.EventStage3Complete{Final: f.final()}, nil

	case "title_complete":
		// The title arrives top-level or nested under data depending on
		// the answering mode.
		if env.Title != "" {
			return council.EventTitleComplete{Title: env.Title}, nil
		}
		var t wireTitle
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &t); err != nil {
				return nil, fmt.Errorf("parse title_complete: %w", err)
			}
		}
		return council.EventTitleComplete{Title: t.Title}, nil

	case "complete":
		return council.EventComplete{}, nil

	case "error":
		return council.EventError{Message: env.Message}, nil

	case "cancelled":
		return council.EventCancelled{Message: env.Message}, nil

	default:
		return council.EventUnknown{Type: env.Type}, nil
	}
}

func (w wireStageResponse) response() council.Response {
	return council.Response{
		Model:               w.Model,
		DisplayName:         w.DisplayName,
		Text:                w.Response,
		IsFailover:          w.IsFailover,
		OriginalProvider:    w.OriginalProvider,
		OriginalDisplayName: w.OriginalDisplayName,
	}
}

func (w wireStageResponse) ranking() council.Ranking {
	return council.Ranking{
		Model:               w.Model,
		DisplayName:         w.DisplayName,
		Text:                w.Ranking,
		ParsedOrder:         w.ParsedRanking,
		IsFailover:          w.IsFailover,
		OriginalProvider:    w.OriginalProvider,
		OriginalDisplayName: w.OriginalDisplayName,
	}
}

func (w wireFinal) final() council.FinalResponse {
	return council.FinalResponse{
		Model:       w.Model,
		DisplayName: w.DisplayName,
		Text:        w.Response,
	}
}

func (w *wireMetadata) metadata() council.Metadata {
	if w == nil {
		return council.Metadata{}
	}
	out := council.Metadata{LabelToModel: w.LabelToModel}
	if len(w.AggregateRankings) > 0 {
		out.AggregateRankings = make([]council.AggregateRanking, len(w.AggregateRankings))
		for i, a := range w.AggregateRankings {
			out.AggregateRankings[i] = council.AggregateRanking{
				Model:         a.Model,
				AverageRank:   a.AverageRank,
				RankingsCount: a.RankingsCount,
			}
		}
	}
	return out
}
