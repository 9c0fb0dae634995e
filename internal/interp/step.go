package interp

// Step advances every tracked player's interpolation state by dtMS
// milliseconds (spec.md §4.D "Advance").
func (ip *Interpolator) Step(dtMS float64) {
	for _, ps := range ip.players {
		ip.stepPlayer(ps, dtMS)
	}
}

func (ip *Interpolator) stepPlayer(ps *playerState, dtMS float64) {
	if ps.queue.Len() == 0 {
		ps.state = Idle
		ps.current.TransitionProgress = 0
		ps.animProgress = 0
		return
	}

	for dtMS > 0 && ps.queue.Len() > 0 {
		elem := ps.queue.Front()
		wp := elem.Value.(*Waypoint)
		queueLen := ps.queue.Len()

		effDur := wp.DurationMS
		if !wp.CrossMapSeam {
			effDur = effDur / (1 + 0.5*float64(queueLen-1))
		}

		if ps.animFrom == nil {
			from := ps.current
			ps.animFrom = &from
			ps.animElapsedMS = 0
		}

		remaining := effDur - ps.animElapsedMS
		if remaining <= dtMS {
			dtMS -= remaining
			ip.completeSegment(ps, wp)
			ps.queue.Remove(elem)
			ps.animFrom = nil
			ps.animElapsedMS = 0
			ps.animProgress = 0
			continue
		}

		ps.animElapsedMS += dtMS
		dtMS = 0
		progress := float32(ps.animElapsedMS / effDur)
		ps.animProgress = progress
		ip.applyProgress(ps, wp, progress)
	}

	if ps.queue.Len() == 0 {
		ps.state = Idle
		ps.current.TransitionProgress = 0
		ps.animProgress = 0
	} else {
		ps.state = Interpolating
	}
}

// completeSegment snaps current to wp's full destination once a segment's
// duration has elapsed.
func (ip *Interpolator) completeSegment(ps *playerState, wp *Waypoint) {
	ps.current = *wp
	ps.current.CrossMapSeam = false
	ps.current.TransitionProgress = 0
}

// applyProgress interpolates current toward wp at the given [0,1)
// progress, following spec.md §4.D: normal segments lerp x,y directly;
// seam segments leave the endpoints unmodified and only publish
// transition_progress, letting the Ghost Projector perform the blend.
func (ip *Interpolator) applyProgress(ps *playerState, wp *Waypoint, progress float32) {
	ps.current.MapGroup, ps.current.MapID = wp.MapGroup, wp.MapID
	ps.current.MapRev = wp.MapRev
	ps.current.BorderX, ps.current.BorderY = wp.BorderX, wp.BorderY
	ps.current.Connections = wp.Connections
	ps.current.MetaStable = wp.MetaStable
	ps.current.MetaHash = wp.MetaHash

	if progress >= 0.5 {
		ps.current.Facing = wp.Facing
	} else {
		ps.current.Facing = ps.animFrom.Facing
	}

	if wp.CrossMapSeam {
		ps.current.X, ps.current.Y = wp.X, wp.Y
		ps.current.TransitionFrom = wp.TransitionFrom
		ps.current.TransitionKind = wp.TransitionKind
		ps.current.CrossMapSeam = true
		ps.current.TransitionProgress = progress
		return
	}

	ps.current.X = lerp(ps.animFrom.X, wp.X, progress)
	ps.current.Y = lerp(ps.animFrom.Y, wp.Y, progress)
	ps.current.CrossMapSeam = false
	ps.current.TransitionProgress = 0
}
