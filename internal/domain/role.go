package domain

// Роль в мафии. Закрытый набор, поведение задается таблицей возможностей
type Role string

const (
	RoleNone      Role = ""
	RoleMafia     Role = "mafia"
	RoleDoctor    Role = "doctor"
	RoleDetective Role = "detective"
	RoleCivilian  Role = "civilian"
)

// Возможность роли: какое действие в какой фазе
type Capability struct {
	Phase Phase
	Kind  ActionKind
}

var roleCapabilities = map[Role][]Capability{
	RoleMafia: {
		{Phase: PhaseNight, Kind: ActionKill},
		{Phase: PhaseDay, Kind: ActionVote},
	},
	RoleDoctor: {
		{Phase: PhaseNight, Kind: ActionHeal},
		{Phase: PhaseDay, Kind: ActionVote},
	},
	RoleDetective: {
		{Phase: PhaseNight, Kind: ActionCheck},
		{Phase: PhaseDay, Kind: ActionVote},
	},
	RoleCivilian: {
		{Phase: PhaseDay, Kind: ActionVote},
	},
}

// ActionFor возвращает действие роли в фазе
func (r Role) ActionFor(phase Phase) (ActionKind, bool) {
	for _, c := range roleCapabilities[r] {
		if c.Phase == phase {
			return c.Kind, true
		}
	}
	return "", false
}

// Can сообщает, может ли роль выполнить действие в фазе
func (r Role) Can(phase Phase, kind ActionKind) bool {
	k, ok := r.ActionFor(phase)
	return ok && k == kind
}

// IsMafia - устранитель
func (r Role) IsMafia() bool {
	return r == RoleMafia
}

// Канал ночного чата роли, пустая строка если канала нет
func (r Role) NightChannel() Channel {
	if r == RoleMafia {
		return ChannelMafia
	}
	return ""
}
