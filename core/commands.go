package core

import (
	"pstat/protocol"
)

var (
	digit1  = protocol.Number("ch", 1)
	codeMax = uint32(0xFFFF)
)

func (in *Instrument) registerCommands() {
	dac := uint32(in.cfg.DACMax)
	reg := in.cmds.Register

	reg(&Command{Code: 'S', Name: "sweep", Handler: in.cmdSweep, Schema: protocol.Schema{Fields: []protocol.FieldSpec{
		protocol.NumberMax("start", 4, dac),
		protocol.NumberMax("end", 4, dac),
		protocol.NumberMax("period", 5, codeMax),
		protocol.Char("sweep", "LC"),
		protocol.Char("polarity", "ZS"),
	}}})
	reg(&Command{Code: 'G', Name: "square_wave", Handler: in.cmdSquareWave, Schema: protocol.Schema{Fields: []protocol.FieldSpec{
		protocol.NumberMax("start", 4, dac),
		protocol.NumberMax("end", 4, dac),
		protocol.Number("inc", 3),
		protocol.Number("pulse", 3),
		protocol.NumberMax("period", 5, codeMax),
		protocol.Char("sweep", "LC"),
		protocol.Char("polarity", "ZS"),
	}}})
	reg(&Command{Code: 'Q', Name: "chrono", Handler: in.cmdChrono, Schema: protocol.Schema{Repeat: true, Fields: []protocol.FieldSpec{
		protocol.NumberMax("code", 4, dac),
		protocol.Number("ticks", 5),
	}}})
	reg(&Command{Code: 'M', Name: "amperometry", Handler: in.cmdStream, Schema: protocol.Schema{Fields: []protocol.FieldSpec{
		protocol.NumberMax("dac", 4, dac),
		protocol.Number("points", 5),
	}}})
	reg(&Command{Code: 'R', Name: "run", Handler: in.cmdRun})
	reg(&Command{Code: 'E', Name: "export", Handler: in.cmdExport, Schema: protocol.Schema{Fields: []protocol.FieldSpec{digit1}}})
	reg(&Command{Code: 'F', Name: "export_stream", Handler: in.cmdExportStream, Schema: protocol.Schema{Fields: []protocol.FieldSpec{digit1}}})
	reg(&Command{Code: 'B', Name: "calibrate", Handler: in.cmdCalibrate})
	reg(&Command{Code: 'X', Name: "reset", Handler: in.cmdReset})
	reg(&Command{Code: 'T', Name: "period", Handler: in.cmdPeriod, Schema: protocol.Schema{Fields: []protocol.FieldSpec{
		protocol.NumberMax("period", 5, codeMax),
	}}})
	reg(&Command{Code: 'C', Name: "compare", Handler: in.cmdCompare, Schema: protocol.Schema{Fields: []protocol.FieldSpec{
		protocol.NumberMax("compare", 5, codeMax),
	}}})
	reg(&Command{Code: 'D', Name: "set_dac", Handler: in.cmdSetDAC, Schema: protocol.Schema{Fields: []protocol.FieldSpec{
		protocol.NumberMax("code", 4, dac),
	}}})
	reg(&Command{Code: 'A', Name: "tia_adc", Handler: in.cmdGain, Schema: protocol.Schema{Fields: []protocol.FieldSpec{
		protocol.Number("adc", 1),
		protocol.Number("resistor", 1),
		protocol.Number("gain", 1),
	}}})
	reg(&Command{Code: 'L', Name: "electrodes", Handler: in.cmdElectrodes, Schema: protocol.Schema{Fields: []protocol.FieldSpec{
		protocol.Char("count", "23"),
	}}})
	reg(&Command{Code: 'V', Name: "voltage_source", Handler: in.cmdVoltageSource, Schema: protocol.Schema{Fields: []protocol.FieldSpec{
		protocol.Char("op", "R012"),
	}}})
	reg(&Command{Code: 'I', Name: "identify", Handler: in.cmdIdentify})
	reg(&Command{Code: 'H', Name: "wake", Handler: in.cmdWake})
	reg(&Command{Code: 's', Name: "short_tia", Handler: in.cmdShort})
	reg(&Command{Code: 'd', Name: "unshort_tia", Handler: in.cmdUnshort})
	reg(&Command{Code: 'l', Name: "export_lut", Handler: in.cmdExportLUT})
	reg(&Command{Code: 'g', Name: "lut_length", Handler: in.cmdLUTLength})
	reg(&Command{Code: 'P', Name: "status", Handler: in.cmdStatus})
	reg(&Command{Code: '?', Name: "help", Handler: in.cmdHelp})
}

// cmdSweep builds a linear or cyclic voltammetry table and sets the tick period
func (in *Instrument) cmdSweep(a *protocol.Fields) error {
	if in.pipe.Running() {
		return ErrPipelineBusy
	}
	p := SweepParams{
		Start:    uint16(a.Uint(0)),
		End:      uint16(a.Uint(1)),
		Sweep:    SweepType(a.Char(3)),
		Polarity: StartPolarity(a.Char(4)),
	}
	if a.Uint(2) < 2 {
		return ErrBadPeriod
	}
	if err := in.gen.Sweep(in.table, p); err != nil {
		return err
	}
	if err := in.setPeriod(uint16(a.Uint(2))); err != nil {
		return err
	}
	in.replyNumber(in.table.Len())
	return nil
}

func (in *Instrument) cmdSquareWave(a *protocol.Fields) error {
	if in.pipe.Running() {
		return ErrPipelineBusy
	}
	p := SquareWaveParams{
		Start:    uint16(a.Uint(0)),
		End:      uint16(a.Uint(1)),
		Inc:      uint16(a.Uint(2)),
		Pulse:    uint16(a.Uint(3)),
		Sweep:    SweepType(a.Char(5)),
		Polarity: StartPolarity(a.Char(6)),
	}
	if a.Uint(4) < 2 {
		return ErrBadPeriod
	}
	if err := in.gen.SquareWave(in.table, p); err != nil {
		return err
	}
	if err := in.setPeriod(uint16(a.Uint(4))); err != nil {
		return err
	}
	in.replyNumber(in.table.Len())
	return nil
}

func (in *Instrument) cmdChrono(a *protocol.Fields) error {
	if in.pipe.Running() {
		return ErrPipelineBusy
	}
	segs := make([]Segment, a.Groups())
	for i := range segs {
		segs[i] = Segment{Code: uint16(a.Uint(2 * i)), Ticks: int(a.Uint(2*i + 1))}
	}
	if err := in.gen.Chrono(in.table, segs); err != nil {
		return err
	}
	in.replyNumber(in.table.Len())
	return nil
}

// cmdStream arms streaming amperometry and replies with the per-buffer export size
func (in *Instrument) cmdStream(a *protocol.Fields) error {
	if err := in.pipe.ArmStream(uint16(a.Uint(0)), int(a.Uint(1))); err != nil {
		return err
	}
	in.replyNumber(in.pool.BufferSizeBytes())
	return nil
}

func (in *Instrument) cmdRun(*protocol.Fields) error {
	return in.pipe.ArmSweep(in.table)
}

func (in *Instrument) cmdExport(a *protocol.Fields) error {
	return in.sendBuffer(in.pool.Export(int(a.Uint(0))))
}

func (in *Instrument) cmdExportStream(a *protocol.Fields) error {
	return in.sendBuffer(in.pool.ExportStream(int(a.Uint(0))))
}

// sendBuffer writes an exported buffer. A buffer torn by the writer is still sent.
func (in *Instrument) sendBuffer(data []byte, err error) error {
	if err == ErrBufferOverrun {
		DebugPrintln("[EXPORT] " + err.Error())
		err = nil
	}
	if err != nil {
		return err
	}
	in.write(data)
	return nil
}

func (in *Instrument) cmdCalibrate(*protocol.Fields) error {
	if in.pipe.Running() {
		return ErrPipelineBusy
	}
	rec, err := in.cal.Run(in.conv.Gain())
	if err != nil {
		return err
	}
	in.conv.SetCalibration(rec)
	if err := in.saveCalibration(rec); err != nil {
		DebugPrintln("[CAL] save: " + err.Error())
	}
	data, _ := rec.MarshalBinary()
	in.write(data)
	return nil
}

func (in *Instrument) cmdReset(*protocol.Fields) error {
	in.pipe.Reset()
	return nil
}

func (in *Instrument) cmdPeriod(a *protocol.Fields) error {
	if in.pipe.Running() {
		return ErrPipelineBusy
	}
	return in.setPeriod(uint16(a.Uint(0)))
}

func (in *Instrument) cmdCompare(a *protocol.Fields) error {
	if in.pipe.Running() {
		return ErrPipelineBusy
	}
	return in.setCompare(uint16(a.Uint(0)))
}

func (in *Instrument) cmdSetDAC(a *protocol.Fields) error {
	if in.pipe.Running() {
		return ErrPipelineBusy
	}
	in.drv.Stimulus.SetCode(uint16(a.Uint(0)))
	return nil
}

// cmdGain selects the ADC range and the TIA resistor/gain. A previous
// calibration no longer applies afterwards.
func (in *Instrument) cmdGain(a *protocol.Fields) error {
	if in.pipe.Running() {
		return ErrPipelineBusy
	}
	rng := uint8(a.Uint(0))
	res, gain := int(a.Uint(1)), int(a.Uint(2))
	if err := ValidateGain(res, gain); err != nil {
		return err
	}
	if err := in.drv.Sample.SelectConfig(rng); err != nil {
		return err
	}
	if err := in.conv.SetRange(rng); err != nil {
		return err
	}
	if err := in.conv.SetGain(res, gain); err != nil {
		return err
	}
	in.drv.FrontEnd.SetResistor(res)
	in.drv.FrontEnd.SetBufferGain(gain)
	in.applySavedCalibration()
	return nil
}

func (in *Instrument) cmdElectrodes(a *protocol.Fields) error {
	return in.drv.FrontEnd.SetElectrodes(int(a.Char(0) - '0'))
}

func (in *Instrument) cmdVoltageSource(a *protocol.Fields) error {
	if op := a.Char(0); op != 'R' {
		if err := in.saveVoltageSource(op - '0'); err != nil {
			return err
		}
	}
	in.replyText("V" + itoa(int(in.source)))
	return nil
}

func (in *Instrument) cmdIdentify(*protocol.Fields) error {
	in.replyText(in.cfg.Identity)
	return nil
}

func (in *Instrument) cmdWake(*protocol.Fields) error {
	in.drv.Stimulus.Wake()
	in.drv.Sample.Start()
	return nil
}

func (in *Instrument) cmdShort(*protocol.Fields) error {
	in.drv.FrontEnd.ShortTIA(true)
	return nil
}

func (in *Instrument) cmdUnshort(*protocol.Fields) error {
	in.drv.FrontEnd.ShortTIA(false)
	return nil
}

func (in *Instrument) cmdExportLUT(*protocol.Fields) error {
	n := protocol.PutCodes(in.lutOut, in.table.Codes())
	in.write(in.lutOut[:n])
	return nil
}

func (in *Instrument) cmdLUTLength(*protocol.Fields) error {
	in.replyNumber(in.table.Len())
	return nil
}

// cmdStatus replies "state|mode|channel|index", state being I (idle) or R (running)
func (in *Instrument) cmdStatus(*protocol.Fields) error {
	st := in.pipe.State()
	state := "I"
	if st.Armed {
		state = "R"
	}
	mode := "S"
	if st.Mode == ModeStream {
		mode = "M"
	}
	in.replyText(state + "|" + mode + "|" + itoa(st.Channel) + "|" + itoa(st.Index))
	return nil
}

func (in *Instrument) cmdHelp(*protocol.Fields) error {
	in.write([]byte(in.cmds.Describe()))
	return nil
}
