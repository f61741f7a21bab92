package vkr

import (
	"fmt"
	"strings"
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

// fakeFrameTarget scripts acquire and present results and records every call
// the scheduler makes, so tests can assert on ordering without a device.
type fakeFrameTarget struct {
	images int

	acquireImages  []int
	acquireResults []vk.Result
	presentResults []vk.Result
	pendingResize  bool

	frame int
	ops   []string

	// slotPending counts submissions per slot not yet waited on, inFlight
	// totals them across slots
	slotPending []int
	inFlight    int
	maxInFlight int

	rebuildImages int
}

func newFakeFrameTarget(images, slots int) *fakeFrameTarget {
	return &fakeFrameTarget{
		images:        images,
		slotPending:   make([]int, slots),
		rebuildImages: images,
	}
}

func (f *fakeFrameTarget) op(format string, args ...interface{}) {
	f.ops = append(f.ops, fmt.Sprintf(format, args...))
}

func (f *fakeFrameTarget) waitSlotFence(slot int) error {
	f.op("wait-fence %d", slot)
	f.inFlight -= f.slotPending[slot]
	f.slotPending[slot] = 0
	return nil
}

func (f *fakeFrameTarget) resetSlotFence(slot int) error {
	f.op("reset-fence %d", slot)
	return nil
}

func (f *fakeFrameTarget) acquire(slot int) (int, vk.Result) {
	image, res := 0, vk.Success
	if f.frame < len(f.acquireImages) {
		image = f.acquireImages[f.frame]
	}
	if f.frame < len(f.acquireResults) {
		res = f.acquireResults[f.frame]
	}
	f.op("acquire %d -> %d", slot, image)
	return image, res
}

func (f *fakeFrameTarget) updateUniforms(image int) error {
	f.op("update %d", image)
	return nil
}

func (f *fakeFrameTarget) submit(image, slot int) error {
	f.op("submit %d %d", image, slot)
	f.slotPending[slot]++
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	return nil
}

func (f *fakeFrameTarget) present(image, slot int) vk.Result {
	f.op("present %d", image)
	res := vk.Success
	if f.frame < len(f.presentResults) {
		res = f.presentResults[f.frame]
	}
	f.frame++
	return res
}

func (f *fakeFrameTarget) resizePending() bool {
	return f.pendingResize
}

func (f *fakeFrameTarget) rebuild() error {
	f.op("rebuild")
	f.images = f.rebuildImages
	f.pendingResize = false
	// An early-out at acquire never reaches present, keep the script moving
	if f.frame < len(f.acquireResults) && f.acquireResults[f.frame] == vk.ErrorOutOfDate {
		f.frame++
	}
	return nil
}

func (f *fakeFrameTarget) imageCount() int {
	return f.images
}

func (f *fakeFrameTarget) opIndex(t *testing.T, op string) int {
	t.Helper()
	for i, o := range f.ops {
		if o == op {
			return i
		}
	}
	t.Fatalf("op %q not found in %v", op, f.ops)
	return -1
}

func TestDrawFrameStepOrder(t *testing.T) {
	target := newFakeFrameTarget(3, 2)
	s := newFrameScheduler(target, 2)

	if err := s.DrawFrame(); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"wait-fence 0",
		"acquire 0 -> 0",
		"update 0",
		"reset-fence 0",
		"submit 0 0",
		"present 0",
	}
	got := strings.Join(target.ops, ", ")
	if got != strings.Join(want, ", ") {
		t.Errorf("frame ops = %s, want %s", got, strings.Join(want, ", "))
	}
	if s.currentSlot != 1 {
		t.Errorf("slot after frame = %d, want 1", s.currentSlot)
	}
}

func TestSlotAdvancesModulo(t *testing.T) {
	target := newFakeFrameTarget(3, 2)
	target.acquireImages = []int{0, 1, 2, 0}
	s := newFrameScheduler(target, 2)

	for i := 0; i < 4; i++ {
		if err := s.DrawFrame(); err != nil {
			t.Fatal(err)
		}
		if want := (i + 1) % 2; s.currentSlot != want {
			t.Errorf("after frame %d: slot = %d, want %d", i, s.currentSlot, want)
		}
	}
}

func TestInFlightFramesNeverExceedLimit(t *testing.T) {
	for _, frames := range []int{1, 2, 3} {
		target := newFakeFrameTarget(4, frames)
		target.acquireImages = []int{0, 1, 2, 3, 0, 1, 2, 3}
		s := newFrameScheduler(target, frames)

		for i := 0; i < 8; i++ {
			if err := s.DrawFrame(); err != nil {
				t.Fatal(err)
			}
		}
		if target.maxInFlight > frames {
			t.Errorf("frames=%d: observed %d frames in flight", frames, target.maxInFlight)
		}
	}
}

// The swapchain may hand image 0 to slot 1 while slot 0's submission against
// it is still outstanding. The scheduler must wait slot 0's fence before
// slot 1 submits.
func TestImageReuseWaitsEarlierSlot(t *testing.T) {
	target := newFakeFrameTarget(3, 2)
	target.acquireImages = []int{0, 0}
	s := newFrameScheduler(target, 2)

	for i := 0; i < 2; i++ {
		if err := s.DrawFrame(); err != nil {
			t.Fatal(err)
		}
	}

	// Second frame: throttle waits slot 1, then the hazard wait on slot 0
	hazard := -1
	for i, op := range target.ops {
		if i > target.opIndex(t, "submit 0 0") && op == "wait-fence 0" {
			hazard = i
		}
	}
	if hazard < 0 {
		t.Fatalf("no hazard wait on slot 0 before image reuse; ops: %v", target.ops)
	}
	if submit2 := target.opIndex(t, "submit 0 1"); hazard > submit2 {
		t.Errorf("hazard wait at %d after second submit at %d", hazard, submit2)
	}
}

// Acquire pattern [0, 1, 0] with two slots: the slot ring wraps back to slot
// 0 just as image 0 comes around again, so the throttle wait on slot 0 is
// also the wait covering image 0's earlier submission. There must be a wait
// on slot 0's fence between the two submissions against image 0.
func TestImageReuseAfterSlotWraparound(t *testing.T) {
	target := newFakeFrameTarget(2, 2)
	target.acquireImages = []int{0, 1, 0}
	s := newFrameScheduler(target, 2)

	for i := 0; i < 3; i++ {
		if err := s.DrawFrame(); err != nil {
			t.Fatal(err)
		}
	}

	first := target.opIndex(t, "submit 0 0")
	var second int
	for i, op := range target.ops {
		if op == "submit 0 0" && i > first {
			second = i
		}
	}
	if second == 0 {
		t.Fatalf("image 0 never resubmitted; ops: %v", target.ops)
	}
	waited := false
	for _, op := range target.ops[first:second] {
		if op == "wait-fence 0" {
			waited = true
		}
	}
	if !waited {
		t.Errorf("no wait on slot 0 between submissions against image 0; ops: %v", target.ops)
	}
}

func TestAcquireOutOfDateRebuildsAndSkipsFrame(t *testing.T) {
	target := newFakeFrameTarget(3, 2)
	target.acquireResults = []vk.Result{vk.ErrorOutOfDate, vk.Success}
	s := newFrameScheduler(target, 2)

	if err := s.DrawFrame(); err != nil {
		t.Fatal(err)
	}

	for _, op := range target.ops {
		if strings.HasPrefix(op, "submit") || strings.HasPrefix(op, "present") {
			t.Errorf("unexpected %q after stale acquire", op)
		}
	}
	target.opIndex(t, "rebuild")

	// Nothing was submitted, so the next frame reuses the slot
	if s.currentSlot != 0 {
		t.Errorf("slot advanced to %d on abandoned frame", s.currentSlot)
	}
}

func TestAcquireSuboptimalProceeds(t *testing.T) {
	target := newFakeFrameTarget(3, 2)
	target.acquireResults = []vk.Result{vk.Suboptimal}
	s := newFrameScheduler(target, 2)

	if err := s.DrawFrame(); err != nil {
		t.Fatal(err)
	}
	target.opIndex(t, "submit 0 0")
	target.opIndex(t, "present 0")
	for _, op := range target.ops {
		if op == "rebuild" {
			t.Error("suboptimal acquire triggered a rebuild")
		}
	}
}

func TestAcquireFailureIsFatal(t *testing.T) {
	target := newFakeFrameTarget(3, 2)
	target.acquireResults = []vk.Result{vk.ErrorDeviceLost}
	s := newFrameScheduler(target, 2)

	err := s.DrawFrame()
	if err == nil {
		t.Fatal("device loss at acquire did not fail the frame")
	}
	if !strings.Contains(err.Error(), "acquire") {
		t.Errorf("error %q does not name the failing call", err)
	}
}

// Suboptimal at present still shows the frame, then rebuilds before the next
// acquire.
func TestPresentSuboptimalPresentsThenRebuilds(t *testing.T) {
	target := newFakeFrameTarget(3, 2)
	target.presentResults = []vk.Result{vk.Suboptimal, vk.Success}
	s := newFrameScheduler(target, 2)

	if err := s.DrawFrame(); err != nil {
		t.Fatal(err)
	}
	if err := s.DrawFrame(); err != nil {
		t.Fatal(err)
	}

	present := target.opIndex(t, "present 0")
	rebuild := target.opIndex(t, "rebuild")
	if rebuild < present {
		t.Errorf("rebuild at %d before present at %d", rebuild, present)
	}

	var secondAcquire int
	for i, op := range target.ops {
		if strings.HasPrefix(op, "acquire") && i > present {
			secondAcquire = i
			break
		}
	}
	if rebuild > secondAcquire {
		t.Errorf("rebuild at %d after next frame's acquire at %d; ops: %v", rebuild, secondAcquire, target.ops)
	}
}

func TestPresentOutOfDateRebuilds(t *testing.T) {
	target := newFakeFrameTarget(3, 2)
	target.presentResults = []vk.Result{vk.ErrorOutOfDate}
	s := newFrameScheduler(target, 2)

	if err := s.DrawFrame(); err != nil {
		t.Fatal(err)
	}
	target.opIndex(t, "rebuild")
	if s.currentSlot != 1 {
		t.Errorf("presented frame did not advance the slot")
	}
}

func TestResizeFlagRebuildsAfterPresent(t *testing.T) {
	target := newFakeFrameTarget(3, 2)
	target.pendingResize = true
	s := newFrameScheduler(target, 2)

	if err := s.DrawFrame(); err != nil {
		t.Fatal(err)
	}

	present := target.opIndex(t, "present 0")
	rebuild := target.opIndex(t, "rebuild")
	if rebuild < present {
		t.Errorf("rebuild at %d before present at %d", rebuild, present)
	}
	if target.pendingResize {
		t.Error("resize flag still pending after rebuild")
	}
}

func TestPresentFailureIsFatal(t *testing.T) {
	target := newFakeFrameTarget(3, 2)
	target.presentResults = []vk.Result{vk.ErrorDeviceLost}
	s := newFrameScheduler(target, 2)

	err := s.DrawFrame()
	if err == nil {
		t.Fatal("device loss at present did not fail the frame")
	}
	if !strings.Contains(err.Error(), "present") {
		t.Errorf("error %q does not name the failing call", err)
	}
}

// A rebuild changes the image count; the hazard table must match the new
// swapchain with no stale slots recorded.
func TestRebuildResizesImageTable(t *testing.T) {
	target := newFakeFrameTarget(2, 2)
	target.acquireResults = []vk.Result{vk.Success}
	target.presentResults = []vk.Result{vk.Suboptimal}
	target.rebuildImages = 4
	s := newFrameScheduler(target, 2)

	if err := s.DrawFrame(); err != nil {
		t.Fatal(err)
	}

	if len(s.imagesInFlight) != 4 {
		t.Fatalf("image table has %d entries after rebuild, want 4", len(s.imagesInFlight))
	}
	for i, slot := range s.imagesInFlight {
		if slot != -1 {
			t.Errorf("image %d still records slot %d after rebuild", i, slot)
		}
	}
}
