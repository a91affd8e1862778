package frame

import (
	"bufio"
	"fmt"
	"io"
)

// WriteTrace writes a deterministic text description of f: identity, flags, then every pass with its state
// and commands in execution order. Timestamps are left out so traces can be compared across runs.
//
// Parameters:
//   - w: the destination
//   - f: the frame to describe
//
// Returns:
//   - error: the first write error
func WriteTrace(w io.Writer, f *StereoRenderingFrame) error {
	bw := bufio.NewWriter(w)

	layout := "single-pass"
	if f.IsMultiPass() {
		layout = "multi-pass"
	}
	fmt.Fprintf(bw, "frame %d session %d %s\n", f.ID(), f.SessionID(), layout)
	fmt.Fprintf(bw, "  ended=%t finished=%t droppable=%t added-once=%t lifecycle=%t\n",
		f.Ended(), f.Finished(), f.Droppable(), f.AddedOnce(), f.HasResourceLifecycle())

	for p := 0; p < f.PassCount(); p++ {
		state, _ := f.State(p)
		cmds := f.CommandBuffers(p)
		fmt.Fprintf(bw, "  pass %d %s commands=%d\n", p, state, len(cmds))
		for i, cb := range cmds {
			fmt.Fprintf(bw, "    %02d %s\n", i, cb)
		}
	}
	return bw.Flush()
}
