package pipeline

// SkillEntry is one row of the player profile's skill table.
type SkillEntry struct {
	Level      int
	Experience int
	MaxLevel   int
}

// PlayerProfile is the external game-state collaborator. The pipeline reads
// a fixed projection of it and writes only currency and current-skill
// experience; everything else belongs to the idle-game layer.
type PlayerProfile interface {
	Currency() int
	SetCurrency(coins int)
	ElapsedTime() int64
	SetElapsedTime(minutes int64)
	Alignment() int
	SetAlignment(alignment int)
	Paused() bool
	SetPaused(paused bool)
	Skill(name string) (SkillEntry, bool)
	SetSkillExperience(name string, experience int)
	CurrentSkill() string
}

// MemoryProfile is an in-memory PlayerProfile for local play and tests.
type MemoryProfile struct {
	currency     int
	elapsed      int64
	alignment    int
	paused       bool
	skills       map[string]SkillEntry
	currentSkill string
}

// NewMemoryProfile returns an empty profile tracking the given skill.
func NewMemoryProfile(currentSkill string) *MemoryProfile {
	return &MemoryProfile{
		skills:       map[string]SkillEntry{},
		currentSkill: currentSkill,
	}
}

func (p *MemoryProfile) Currency() int { return p.currency }

func (p *MemoryProfile) SetCurrency(coins int) { p.currency = coins }

func (p *MemoryProfile) ElapsedTime() int64 { return p.elapsed }

func (p *MemoryProfile) SetElapsedTime(m int64) { p.elapsed = m }

func (p *MemoryProfile) Alignment() int { return p.alignment }

func (p *MemoryProfile) SetAlignment(alignment int) { p.alignment = alignment }

func (p *MemoryProfile) Paused() bool { return p.paused }

func (p *MemoryProfile) SetPaused(paused bool) { p.paused = paused }

func (p *MemoryProfile) CurrentSkill() string { return p.currentSkill }

// Skill returns the entry for a named skill.
func (p *MemoryProfile) Skill(name string) (SkillEntry, bool) {
	entry, ok := p.skills[name]
	return entry, ok
}

// SetSkill seeds a skill row.
func (p *MemoryProfile) SetSkill(name string, entry SkillEntry) {
	p.skills[name] = entry
}

// SetSkillExperience updates one skill's experience, creating the row if
// needed.
func (p *MemoryProfile) SetSkillExperience(name string, experience int) {
	entry := p.skills[name]
	entry.Experience = experience
	p.skills[name] = entry
}
