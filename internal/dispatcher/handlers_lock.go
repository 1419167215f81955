package dispatcher

func (d *Dispatcher) handleLock(req *request) *response {
	if err := requireField(req.Password, "password"); err != nil {
		return failureFromErr(err)
	}
	if err := d.Registry.Lock(req.Password); err != nil {
		return failureFromErr(err)
	}
	return success("agent locked.")
}

func (d *Dispatcher) handleUnlock(req *request) *response {
	if err := requireField(req.Password, "password"); err != nil {
		return failureFromErr(err)
	}
	if err := d.Registry.Unlock(req.Password); err != nil {
		return failureFromErr(err)
	}
	return success("agent unlocked.")
}
