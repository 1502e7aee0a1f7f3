package orch

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dkeye/FrontRow/internal/app"
	"github.com/dkeye/FrontRow/internal/core"
	"github.com/dkeye/FrontRow/internal/core/coretest"
	"github.com/dkeye/FrontRow/internal/domain"
	"golang.org/x/sync/errgroup"
)

func newTestOrch(t *testing.T, resetDelay time.Duration) *Orchestrator {
	t.Helper()
	reg := app.NewRegistry()
	o := New(
		reg,
		app.NewSeatTable(),
		app.NewShowController(resetDelay),
		app.NewDispatcher(reg, app.SimplePolicy{}, app.NewHistory(512)),
		app.NewSchedule(),
	)
	t.Cleanup(o.Close)
	return o
}

func join(t *testing.T, o *Orchestrator, role domain.Role, name string) (domain.SessionID, *coretest.Recorder) {
	t.Helper()
	rec := coretest.NewRecorder()
	sess, err := o.Connect(rec, nil, ConnectOptions{Role: role, Name: name})
	if err != nil {
		t.Fatalf("connect %s: %v", name, err)
	}
	return sess.ID, rec
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func seatUpdates(t *testing.T, rec *coretest.Recorder, seat domain.SeatID) []core.SeatUpdate {
	t.Helper()
	var out []core.SeatUpdate
	for _, w := range rec.OfKind(core.EventSeatUpdate) {
		u, err := coretest.Payload[core.SeatUpdate](w)
		if err != nil {
			t.Fatalf("seat-update payload: %v", err)
		}
		if u.SeatID == seat {
			out = append(out, u)
		}
	}
	return out
}

func TestConnectSendsWelcomeFirst(t *testing.T) {
	o := newTestOrch(t, time.Hour)
	sid, rec := join(t, o, domain.RoleAudience, "  Alice ")

	frames := rec.Frames()
	if len(frames) == 0 || frames[0].Type != string(core.EventWelcome) {
		t.Fatalf("expected welcome first, got %+v", frames)
	}
	w, err := coretest.Payload[core.Welcome](frames[0])
	if err != nil {
		t.Fatalf("welcome payload: %v", err)
	}
	if w.SessionID != sid || w.Role != domain.RoleAudience || w.Profile.Name != "Alice" {
		t.Fatalf("unexpected welcome %+v", w)
	}
	if len(w.State.Seats) != domain.SeatCount || w.State.Show.Status != domain.ShowIdle {
		t.Fatalf("unexpected welcome state %+v", w.State)
	}
}

func TestTenthClaimantIsRejected(t *testing.T) {
	o := newTestOrch(t, time.Hour)
	_, observer := join(t, o, domain.RoleUnassigned, "observer")

	for i, id := range domain.SeatIDs() {
		sid, _ := join(t, o, domain.RoleAudience, fmt.Sprintf("fan-%d", i))
		if _, err := o.SelectSeat(sid, string(id), fmt.Sprintf("fan-%d", i), ""); err != nil {
			t.Fatalf("claim %s: %v", id, err)
		}
	}
	late, _ := join(t, o, domain.RoleAudience, "late")
	for _, id := range domain.SeatIDs() {
		if _, err := o.SelectSeat(late, string(id), "late", ""); !errors.Is(err, domain.ErrSeatTaken) {
			t.Fatalf("claim %s by tenth: expected ErrSeatTaken, got %v", id, err)
		}
	}
	if st := o.State(); st.Occupied != domain.SeatCount {
		t.Fatalf("expected %d occupied seats, got %d", domain.SeatCount, st.Occupied)
	}
	if n := observer.Count(core.EventSeatUpdate); n != domain.SeatCount {
		t.Fatalf("expected %d seat-updates, got %d", domain.SeatCount, n)
	}
}

func TestConcurrentClaimsBroadcastOnce(t *testing.T) {
	o := newTestOrch(t, time.Hour)
	_, observer := join(t, o, domain.RoleUnassigned, "observer")

	seats := domain.SeatIDs()
	ids := make([]domain.SessionID, 40)
	for i := range ids {
		ids[i], _ = join(t, o, domain.RoleAudience, fmt.Sprintf("fan-%d", i))
	}
	wins := make([]atomic.Int32, len(seats))
	var g errgroup.Group
	for _, sid := range ids {
		i := rand.IntN(len(seats))
		g.Go(func() error {
			_, err := o.SelectSeat(sid, string(seats[i]), "fan", "")
			switch {
			case err == nil:
				wins[i].Add(1)
			case errors.Is(err, domain.ErrSeatTaken):
			default:
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	total := 0
	for i, id := range seats {
		w := int(wins[i].Load())
		if w > 1 {
			t.Fatalf("%s: expected at most one winner, got %d", id, w)
		}
		if n := len(seatUpdates(t, observer, id)); n != w {
			t.Fatalf("%s: expected %d seat-updates, got %d", id, w, n)
		}
		total += w
	}
	if total == 0 {
		t.Fatalf("expected at least one claim to succeed")
	}
	if st := o.State(); st.Occupied != total {
		t.Fatalf("expected %d occupied seats, got %d", total, st.Occupied)
	}
}

func TestSelectSeatRules(t *testing.T) {
	o := newTestOrch(t, time.Hour)
	a, _ := join(t, o, domain.RoleAudience, "a")
	_, observer := join(t, o, domain.RoleUnassigned, "observer")
	perf, _ := join(t, o, domain.RolePerformer, "band")

	if _, err := o.SelectSeat(a, "seat-1", "a", ""); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if _, err := o.SelectSeat(a, "seat-1", "a", ""); err != nil {
		t.Fatalf("re-claim own seat: %v", err)
	}
	if n := len(seatUpdates(t, observer, "seat-1")); n != 1 {
		t.Fatalf("re-claim must not broadcast, got %d updates", n)
	}
	if _, err := o.SelectSeat(a, "seat-2", "a", ""); !errors.Is(err, domain.ErrAlreadySeated) {
		t.Fatalf("expected ErrAlreadySeated, got %v", err)
	}
	if _, err := o.SelectSeat(perf, "seat-3", "band", ""); !errors.Is(err, domain.ErrRoleConflict) {
		t.Fatalf("expected ErrRoleConflict for performer, got %v", err)
	}
	if _, err := o.SelectSeat(a, "balcony", "a", ""); !errors.Is(err, domain.ErrInvalidSeat) {
		t.Fatalf("expected ErrInvalidSeat, got %v", err)
	}
	if _, err := o.SelectSeat("ghost", "seat-5", "g", ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGoLiveLinksEverySeatOnce(t *testing.T) {
	o := newTestOrch(t, time.Hour)
	fans := map[domain.SessionID]*coretest.Recorder{}
	for i, id := range domain.SeatIDs() {
		sid, rec := join(t, o, domain.RoleAudience, fmt.Sprintf("fan-%d", i))
		if _, err := o.SelectSeat(sid, string(id), "fan", ""); err != nil {
			t.Fatalf("claim %s: %v", id, err)
		}
		fans[sid] = rec
	}
	perf, perfRec := join(t, o, domain.RolePerformer, "band")

	if _, err := o.PreShowBy(perf); err != nil {
		t.Fatalf("pre-show: %v", err)
	}
	show, err := o.GoLive(perf)
	if err != nil || show.Status != domain.ShowLive || show.PerformerID != perf {
		t.Fatalf("go live: %+v, %v", show, err)
	}

	if n := perfRec.Count(core.EventNewPeerLink); n != domain.SeatCount {
		t.Fatalf("expected performer to get %d links, got %d", domain.SeatCount, n)
	}
	targets := map[domain.SessionID]int{}
	for _, w := range perfRec.OfKind(core.EventNewPeerLink) {
		l, _ := coretest.Payload[core.NewPeerLink](w)
		if !l.Initiate {
			t.Fatalf("performer should initiate, got %+v", l)
		}
		targets[l.Target]++
	}
	for sid, rec := range fans {
		if targets[sid] != 1 {
			t.Fatalf("%s: performer got %d links to it", sid, targets[sid])
		}
		links := rec.OfKind(core.EventNewPeerLink)
		if len(links) != 1 {
			t.Fatalf("%s: expected one link, got %d", sid, len(links))
		}
		l, _ := coretest.Payload[core.NewPeerLink](links[0])
		if l.Target != perf || l.Initiate {
			t.Fatalf("%s: unexpected link %+v", sid, l)
		}
		status := rec.OfKind(core.EventShowStatus)
		last, _ := coretest.Payload[core.ShowStatusUpdate](status[len(status)-1])
		if last.Status != domain.ShowLive || last.ArtistID != perf {
			t.Fatalf("%s: unexpected status %+v", sid, last)
		}
	}

	var leaver domain.SessionID
	for sid := range fans {
		leaver = sid
		break
	}
	freed, ok := o.LeaveSeat(leaver)
	if !ok {
		t.Fatalf("leave seat failed")
	}
	late, lateRec := join(t, o, domain.RoleAudience, "late")
	if _, err := o.SelectSeat(late, string(freed), "late", ""); err != nil {
		t.Fatalf("late claim: %v", err)
	}
	if n := lateRec.Count(core.EventNewPeerLink); n != 1 {
		t.Fatalf("late seat should link once, got %d", n)
	}
	if n := perfRec.Count(core.EventNewPeerLink); n != domain.SeatCount+1 {
		t.Fatalf("performer should get a link for the late seat, got %d", n)
	}
}

func TestUnassignedGoLiveBecomesPerformer(t *testing.T) {
	o := newTestOrch(t, time.Hour)
	a, _ := join(t, o, domain.RoleUnassigned, "a")
	fan, _ := join(t, o, domain.RoleAudience, "fan")

	if _, err := o.GoLive(fan); !errors.Is(err, domain.ErrRoleConflict) {
		t.Fatalf("audience go-live: expected ErrRoleConflict, got %v", err)
	}
	if _, err := o.GoLive(a); err != nil {
		t.Fatalf("go live: %v", err)
	}
	sess, _ := o.Registry.Get(a)
	if sess.Role != domain.RolePerformer {
		t.Fatalf("expected performer role, got %s", sess.Role)
	}
	b, _ := join(t, o, domain.RoleUnassigned, "b")
	if _, err := o.GoLive(b); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("second go-live: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := o.AssignRole(b, domain.RolePerformer); !errors.Is(err, domain.ErrRoleConflict) {
		t.Fatalf("second performer: expected ErrRoleConflict, got %v", err)
	}
}

func TestSecondPerformerRoleRejectedOnConnect(t *testing.T) {
	o := newTestOrch(t, time.Hour)
	perf, _ := join(t, o, domain.RolePerformer, "band")

	rec := coretest.NewRecorder()
	sess, err := o.Connect(rec, nil, ConnectOptions{Role: domain.RolePerformer, Name: "other"})
	if !errors.Is(err, domain.ErrRoleConflict) {
		t.Fatalf("second performer while idle: expected ErrRoleConflict, got %v", err)
	}
	if sess.Role != domain.RoleUnassigned || !o.Registry.Exists(sess.ID) {
		t.Fatalf("rejected performer should stay connected unassigned: %+v", sess)
	}
	if n := rec.Count(core.EventWelcome); n != 1 {
		t.Fatalf("expected a welcome, got %d", n)
	}

	if _, err := o.PreShowBy(perf); err != nil {
		t.Fatalf("pre-show: %v", err)
	}
	if _, err := o.PreShowBy(sess.ID); !errors.Is(err, domain.ErrRoleConflict) {
		t.Fatalf("pre-show by non-performer: expected ErrRoleConflict, got %v", err)
	}
	if _, err := o.GoLive(sess.ID); !errors.Is(err, domain.ErrRoleConflict) {
		t.Fatalf("go live in another performer's pre-show: expected ErrRoleConflict, got %v", err)
	}
	if s := o.Show.Snapshot(); s.Status != domain.ShowPreShow || s.PerformerID != "" {
		t.Fatalf("pre-show should be untouched, got %+v", s)
	}
	show, err := o.GoLive(perf)
	if err != nil || show.PerformerID != perf {
		t.Fatalf("go live: %+v, %v", show, err)
	}
}

func TestPreShowSurvivesOpenerDisconnect(t *testing.T) {
	o := newTestOrch(t, time.Hour)
	opener, _ := join(t, o, domain.RolePerformer, "band")
	_, observer := join(t, o, domain.RoleUnassigned, "observer")
	if _, err := o.PreShowBy(opener); err != nil {
		t.Fatalf("pre-show: %v", err)
	}
	o.Disconnect(opener)

	if s := o.Show.Snapshot().Status; s != domain.ShowPreShow {
		t.Fatalf("expected pre-show to stay open, got %s", s)
	}
	stand, _ := join(t, o, domain.RolePerformer, "stand-in")
	sess, _ := o.Registry.Get(stand)
	if sess.Role != domain.RolePerformer {
		t.Fatalf("freed performer role should be available, got %s", sess.Role)
	}
	show, err := o.GoLive(stand)
	if err != nil || show.Status != domain.ShowLive || show.PerformerID != stand {
		t.Fatalf("go live by stand-in: %+v, %v", show, err)
	}
	status := observer.OfKind(core.EventShowStatus)
	last, _ := coretest.Payload[core.ShowStatusUpdate](status[len(status)-1])
	if last.Status != domain.ShowLive || last.ArtistID != stand {
		t.Fatalf("unexpected status %+v", last)
	}
}

func TestConnectDuringSeatChurnGetsWelcomeFirst(t *testing.T) {
	o := newTestOrch(t, time.Hour)
	fan, _ := join(t, o, domain.RoleAudience, "fan")

	const conns = 500
	recs := make([]*coretest.Recorder, conns)
	var done atomic.Bool
	var g errgroup.Group
	g.Go(func() error {
		for !done.Load() {
			if _, err := o.SelectSeat(fan, "seat-0", "fan", ""); err != nil {
				return err
			}
			o.LeaveSeat(fan)
		}
		return nil
	})
	var cg errgroup.Group
	for i := range recs {
		recs[i] = coretest.NewRecorder()
		cg.Go(func() error {
			_, err := o.Connect(recs[i], nil, ConnectOptions{Name: fmt.Sprintf("c-%d", i)})
			return err
		})
	}
	err := cg.Wait()
	done.Store(true)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("seat churn: %v", err)
	}

	for i, rec := range recs {
		frames := rec.Frames()
		if len(frames) == 0 || frames[0].Type != string(core.EventWelcome) {
			t.Fatalf("connection %d: expected welcome first, got %+v", i, frames)
		}
	}
}

func TestEndShowResetsAfterDelay(t *testing.T) {
	o := newTestOrch(t, 30*time.Millisecond)
	fan, fanRec := join(t, o, domain.RoleAudience, "fan")
	perf, _ := join(t, o, domain.RolePerformer, "band")
	_, _ = o.SelectSeat(fan, "seat-0", "fan", "")
	_, _ = o.GoLive(perf)

	if _, err := o.EndShow(fan); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("end by audience: expected ErrInvalidTransition, got %v", err)
	}
	show, err := o.EndShow(perf)
	if err != nil || show.Status != domain.ShowPostShow {
		t.Fatalf("end: %+v, %v", show, err)
	}
	if st := o.State(); st.Occupied != 1 {
		t.Fatalf("seats must survive until the reset, got %d occupied", st.Occupied)
	}
	if n := fanRec.Count(core.EventPeerLinkClosed); n != 1 {
		t.Fatalf("expected peer-link-closed, got %d", n)
	}

	waitFor(t, "idle broadcast", func() bool { return fanRec.Count(core.EventShowStatus) == 3 })

	if n := fanRec.Count(core.EventAllSeatsEmpty); n != 1 {
		t.Fatalf("expected one all-seats-empty, got %d", n)
	}
	if st := o.State(); st.Occupied != 0 {
		t.Fatalf("expected empty seats, got %d", st.Occupied)
	}
	sess, _ := o.Registry.Get(fan)
	if sess.Seated() {
		t.Fatalf("registry still records seat %s", sess.Seat)
	}

	var statuses []domain.ShowStatus
	for _, w := range fanRec.OfKind(core.EventShowStatus) {
		u, _ := coretest.Payload[core.ShowStatusUpdate](w)
		statuses = append(statuses, u.Status)
	}
	want := []domain.ShowStatus{domain.ShowLive, domain.ShowPostShow, domain.ShowIdle}
	if fmt.Sprint(statuses) != fmt.Sprint(want) {
		t.Fatalf("expected statuses %v, got %v", want, statuses)
	}
}

func TestGoLiveDuringPostShowSurvivesReset(t *testing.T) {
	o := newTestOrch(t, 40*time.Millisecond)
	fan, fanRec := join(t, o, domain.RoleAudience, "fan")
	perf, _ := join(t, o, domain.RolePerformer, "band")
	_, _ = o.SelectSeat(fan, "seat-2", "fan", "")
	_, _ = o.GoLive(perf)
	_, _ = o.EndShow(perf)

	if _, err := o.GoLive(perf); err != nil {
		t.Fatalf("go live from post-show: %v", err)
	}
	time.Sleep(150 * time.Millisecond)

	show := o.Show.Snapshot()
	if show.Status != domain.ShowLive || show.PerformerID != perf {
		t.Fatalf("new show was erased: %+v", show)
	}
	if st := o.State(); st.Occupied != 1 {
		t.Fatalf("seats were cleared by a stale reset")
	}
	if n := fanRec.Count(core.EventAllSeatsEmpty); n != 0 {
		t.Fatalf("stale reset broadcast all-seats-empty")
	}
}

func TestDisconnectReleasesSeatOnce(t *testing.T) {
	o := newTestOrch(t, time.Hour)
	_, observer := join(t, o, domain.RoleUnassigned, "observer")
	fan, _ := join(t, o, domain.RoleAudience, "fan")
	if _, err := o.SelectSeat(fan, "seat-3", "fan", ""); err != nil {
		t.Fatalf("claim: %v", err)
	}

	o.Disconnect(fan)
	o.Disconnect(fan)

	updates := seatUpdates(t, observer, "seat-3")
	if len(updates) != 2 || updates[0].User == nil || updates[1].User != nil {
		t.Fatalf("expected claim then exactly one release, got %+v", updates)
	}
	if _, err := o.SelectSeat(fan, "seat-4", "fan", ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("claim after disconnect: expected ErrNotFound, got %v", err)
	}
}

func TestLeaveSeatDuringLiveClosesLink(t *testing.T) {
	o := newTestOrch(t, time.Hour)
	fan, _ := join(t, o, domain.RoleAudience, "fan")
	perf, perfRec := join(t, o, domain.RolePerformer, "band")
	_, _ = o.SelectSeat(fan, "seat-6", "fan", "")
	_, _ = o.GoLive(perf)

	id, ok := o.LeaveSeat(fan)
	if !ok || id != "seat-6" {
		t.Fatalf("leave: %s %v", id, ok)
	}
	closed := perfRec.OfKind(core.EventPeerLinkClosed)
	if len(closed) != 1 {
		t.Fatalf("expected one peer-link-closed, got %d", len(closed))
	}
	c, _ := coretest.Payload[core.PeerLinkClosed](closed[0])
	if c.SessionID != fan {
		t.Fatalf("unexpected closed link %+v", c)
	}
	if _, ok := o.LeaveSeat(fan); ok {
		t.Fatalf("second leave should be a no-op")
	}
}

func TestForwardToDisconnectedTarget(t *testing.T) {
	o := newTestOrch(t, time.Hour)
	a, aRec := join(t, o, domain.RolePerformer, "band")
	b, _ := join(t, o, domain.RoleAudience, "fan")
	o.Disconnect(b)
	aRec.Reset()

	err := o.Forward(a, domain.Envelope{Kind: domain.SignalOffer, Target: b})
	if !errors.Is(err, domain.ErrTargetNotFound) {
		t.Fatalf("expected ErrTargetNotFound, got %v", err)
	}
	if n := len(aRec.Frames()); n != 0 {
		t.Fatalf("sender should get nothing, got %d frames", n)
	}
}

func TestPerformerDisconnectEndsShow(t *testing.T) {
	o := newTestOrch(t, 30*time.Millisecond)
	fan, fanRec := join(t, o, domain.RoleAudience, "fan")
	perf, _ := join(t, o, domain.RolePerformer, "band")
	_, _ = o.SelectSeat(fan, "seat-1", "fan", "")
	_, _ = o.GoLive(perf)

	o.Disconnect(perf)

	if s := o.Show.Snapshot().Status; s != domain.ShowPostShow {
		t.Fatalf("expected post-show, got %s", s)
	}
	closed := fanRec.OfKind(core.EventPeerLinkClosed)
	if len(closed) != 1 {
		t.Fatalf("expected one peer-link-closed, got %d", len(closed))
	}
	waitFor(t, "idle", func() bool { return o.Show.Snapshot().Status == domain.ShowIdle })

	next, _ := join(t, o, domain.RolePerformer, "next band")
	if _, err := o.GoLive(next); err != nil {
		t.Fatalf("a new performer should be able to go live: %v", err)
	}
}

func TestEventsArriveInCommitOrder(t *testing.T) {
	o := newTestOrch(t, time.Hour)
	_, observer := join(t, o, domain.RoleUnassigned, "observer")
	var g errgroup.Group
	for i, id := range domain.SeatIDs() {
		g.Go(func() error {
			rec := coretest.NewRecorder()
			sess, err := o.Connect(rec, nil, ConnectOptions{Role: domain.RoleAudience, Name: fmt.Sprintf("fan-%d", i)})
			if err != nil {
				return err
			}
			_, err = o.SelectSeat(sess.ID, string(id), "fan", "")
			if err != nil {
				return err
			}
			o.Disconnect(sess.ID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	// Every seat must be seen occupied before it is seen freed.
	seen := map[domain.SeatID]bool{}
	for _, w := range observer.OfKind(core.EventSeatUpdate) {
		u, _ := coretest.Payload[core.SeatUpdate](w)
		if u.User != nil {
			seen[u.SeatID] = true
			continue
		}
		if !seen[u.SeatID] {
			t.Fatalf("release of %s arrived before its claim", u.SeatID)
		}
	}
	if len(seen) != domain.SeatCount {
		t.Fatalf("expected %d claims, got %d", domain.SeatCount, len(seen))
	}
}
