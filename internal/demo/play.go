package demo

import (
	"fmt"

	"github.com/blackwell-systems/lifestream/internal/stream"
)

// Play schedules every step of sc on s as a one-shot task. Steps sharing an
// offset run in declaration order. If any step is rejected, the steps
// already scheduled are cancelled.
func Play(s *stream.Stream, sc Scenario) error {
	scheduled := make([]string, 0, len(sc.Steps))
	for i, st := range sc.Steps {
		name := fmt.Sprintf("demo/%s/%d", sc.Name, i)
		if err := s.IngestAfter(name, st.After, st.Reading); err != nil {
			for _, n := range scheduled {
				s.Scheduler().Cancel(n)
			}
			return fmt.Errorf("scheduling step %d of %s: %w", i, sc.Name, err)
		}
		scheduled = append(scheduled, name)
	}
	return nil
}
