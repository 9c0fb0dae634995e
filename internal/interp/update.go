package interp

// Update consumes one position packet for playerID, following spec.md
// §4.D's teleport/seam/fusion rules. timestampMS and durationHintMS are
// optional (nil when the network did not supply them).
func (ip *Interpolator) Update(playerID string, pos Position, timestampMS *uint64, durationHintMS *uint32) {
	ps := ip.get(playerID)

	if ps.queue.Len() == 0 && !ps.everMoved {
		// First packet for this player: establish the baseline directly.
		ps.current = ip.buildWaypoint(ps, pos, DefaultDurationMS)
		ps.state = Idle
		ps.everMoved = true
		ip.rememberMeta(ps, pos)
		if timestampMS != nil {
			ps.lastMoveTimestampMS = timestampMS
		}
		return
	}

	refGroup, refID := ip.referenceMap(ps)
	crossMap := pos.MapGroup != refGroup || pos.MapID != refID

	if crossMap {
		seamRecognized := pos.TransitionKind == TransitionSeamConnected || pos.TransitionKind == TransitionLikelySeam
		if !seamRecognized && pos.TransitionFrom != nil {
			lastX, lastY := ip.referencePos(ps)
			if manhattan(pos.TransitionFrom.X, pos.TransitionFrom.Y, lastX, lastY) <= fusionRadius {
				seamRecognized = true
			}
		}
		if !seamRecognized {
			ip.teleport(ps, pos)
			ip.rememberMeta(ps, pos)
			if timestampMS != nil {
				ps.lastMoveTimestampMS = timestampMS
			}
			return
		}

		dur := ip.computeDuration(ps, timestampMS, durationHintMS)
		wp := ip.buildWaypoint(ps, pos, dur)
		wp.CrossMapSeam = true
		ip.enqueue(ps, wp)
		ip.rememberMeta(ps, pos)
		if timestampMS != nil {
			ps.lastMoveTimestampMS = timestampMS
		}
		return
	}

	// Same-map: try fusing onto an out-of-bounds seam tail first.
	if ip.tryFuse(ps, pos) {
		ip.rememberMeta(ps, pos)
		if timestampMS != nil {
			ps.lastMoveTimestampMS = timestampMS
		}
		return
	}

	lastX, lastY := ip.referencePos(ps)
	dist := manhattan(pos.X, pos.Y, lastX, lastY)
	if dist > TeleportThreshold {
		ip.teleport(ps, pos)
		ip.rememberMeta(ps, pos)
		if timestampMS != nil {
			ps.lastMoveTimestampMS = timestampMS
		}
		return
	}

	if dist == 0 && ps.queue.Len() == 0 {
		// Facing-update shortcut: never advances last_move_timestamp_ms.
		ps.current.Facing = pos.Facing
		ip.rememberMeta(ps, pos)
		return
	}

	dur := ip.computeDuration(ps, timestampMS, durationHintMS)
	wp := ip.buildWaypoint(ps, pos, dur)
	ip.enqueue(ps, wp)
	ip.rememberMeta(ps, pos)
	if timestampMS != nil {
		ps.lastMoveTimestampMS = timestampMS
	}
}

// referenceMap returns the map a new packet should be compared against:
// the queue tail's destination if one is queued, else the current
// waypoint's map.
func (ip *Interpolator) referenceMap(ps *playerState) (group, id uint8) {
	if ps.queue.Len() > 0 {
		tail := ps.queue.Back().Value.(*Waypoint)
		return tail.MapGroup, tail.MapID
	}
	return ps.current.MapGroup, ps.current.MapID
}

// referencePos returns the position a new packet's distance is measured
// from: the queue tail if present, else current.
func (ip *Interpolator) referencePos(ps *playerState) (x, y float32) {
	if ps.queue.Len() > 0 {
		tail := ps.queue.Back().Value.(*Waypoint)
		return tail.X, tail.Y
	}
	return ps.current.X, ps.current.Y
}

// buildWaypoint materializes a Waypoint from an incoming Position,
// resolving projection metadata from the packet or, absent that, the
// per-map-rev cache.
func (ip *Interpolator) buildWaypoint(ps *playerState, pos Position, durationMS float64) Waypoint {
	borderX, borderY := pos.BorderX, pos.BorderY
	connections := pos.Connections
	if !pos.hasMetadata() {
		if c, ok := ps.metaByMapRev[mapKey{pos.MapGroup, pos.MapID, pos.MapRev}]; ok {
			borderX, borderY = c.borderX, c.borderY
			connections = c.connections
		}
	}
	return Waypoint{
		X: pos.X, Y: pos.Y,
		MapGroup: pos.MapGroup, MapID: pos.MapID,
		Facing:      pos.Facing,
		MapRev:      pos.MapRev,
		MetaStable:  pos.MetaStable,
		MetaHash:    pos.MetaHash,
		BorderX:     borderX,
		BorderY:     borderY,
		Connections: connections,

		TransitionFrom: pos.TransitionFrom,
		TransitionKind: pos.TransitionKind,
		DurationMS:     durationMS,
	}
}

// rememberMeta caches border/connection metadata from pos for later
// packets on the same (map, map_rev) that omit it.
func (ip *Interpolator) rememberMeta(ps *playerState, pos Position) {
	if !pos.hasMetadata() {
		return
	}
	ps.metaByMapRev[mapKey{pos.MapGroup, pos.MapID, pos.MapRev}] = connCache{
		borderX: pos.BorderX, borderY: pos.BorderY, connections: pos.Connections,
	}
}

// teleport drops the queue and snaps current to pos directly (spec.md
// §4.D "Teleport rule").
func (ip *Interpolator) teleport(ps *playerState, pos Position) {
	ps.queue.Init()
	ps.animFrom = nil
	ps.animElapsedMS = 0
	ps.current = ip.buildWaypoint(ps, pos, DefaultDurationMS)
	ps.current.CrossMapSeam = false
	ps.current.TransitionProgress = 0
	ps.state = Idle
}

// enqueue appends wp to the queue, applying the overflow rule (spec.md
// §3 Interpolator invariants: "queue length ≤ MAX_QUEUE_SIZE; on
// overflow, flush queue and snap current to the last enqueued waypoint").
func (ip *Interpolator) enqueue(ps *playerState, wp Waypoint) {
	ps.queue.PushBack(&wp)
	if ps.queue.Len() > MaxQueueSize {
		last := ps.queue.Back().Value.(*Waypoint)
		ps.queue.Init()
		ps.animFrom = nil
		ps.animElapsedMS = 0
		ps.current = *last
		ps.state = Idle
		return
	}
	ps.state = Interpolating
}

// tryFuse implements spec.md §4.D "Seam continuation fusion": a queue
// tail that is a cross-map-seam waypoint whose own (x,y) falls outside
// its own map's border is replaced in-place by an in-bounds, same-map,
// nearby packet rather than queued as a second waypoint.
func (ip *Interpolator) tryFuse(ps *playerState, pos Position) bool {
	if ps.queue.Len() == 0 {
		return false
	}
	tail := ps.queue.Back().Value.(*Waypoint)
	if !tail.CrossMapSeam || !tail.outOfBounds() {
		return false
	}
	if tail.MapGroup != pos.MapGroup || tail.MapID != pos.MapID {
		return false
	}
	// The incoming packet must itself be in-bounds on that map.
	bx, by := tail.BorderX, tail.BorderY
	if bx == 0 && by == 0 {
		if c, ok := ps.metaByMapRev[mapKey{pos.MapGroup, pos.MapID, pos.MapRev}]; ok {
			bx, by = c.borderX, c.borderY
		}
	}
	if bx != 0 || by != 0 {
		if pos.X < 0 || pos.Y < 0 || pos.X >= float32(bx) || pos.Y >= float32(by) {
			return false
		}
	}
	if manhattan(pos.X, pos.Y, tail.X, tail.Y) > fusionRadius {
		return false
	}

	newDur := ip.computeDuration(ps, nil, nil)
	tail.X, tail.Y = pos.X, pos.Y
	tail.Facing = pos.Facing
	if newDur > tail.DurationMS {
		tail.DurationMS = newDur
	}
	return true
}

// computeDuration selects a segment duration per spec.md §4.D's priority
// order, then applies jitter padding and the minimum visual clamp.
func (ip *Interpolator) computeDuration(ps *playerState, timestampMS *uint64, durationHintMS *uint32) float64 {
	dur := DefaultDurationMS

	if timestampMS != nil && ps.lastMoveTimestampMS != nil {
		dt := float64(*timestampMS) - float64(*ps.lastMoveTimestampMS)
		if dt >= 10 && dt <= 2*DefaultDurationMS {
			dur = dt
			goto pad
		}
	}
	if durationHintMS != nil {
		h := float64(*durationHintMS)
		if h >= 10 && h <= 2000 {
			dur = h
			goto pad
		}
	}

pad:
	dur *= jitterPadding
	if dur < MinVisualDurationMS {
		dur = MinVisualDurationMS
	}
	return dur
}
