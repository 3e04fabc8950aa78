package reading

// Narrative is the four-part reading attached to a sign: personality, past,
// present and future.
type Narrative struct {
	Per string `json:"per"`
	Pst string `json:"pst"`
	Pre string `json:"pre"`
	Ftr string `json:"ftr"`
}

// profile is the fixed descriptive text for one sign.
type profile struct {
	keywords  string
	vedicName string
	narrative Narrative
}

var profiles = map[Sign]profile{
	Aries: {
		keywords:  "Restless, Guarded, Impulsive, Perfectionist",
		vedicName: "Mesha",
		narrative: Narrative{
			Per: "Starts fast, hates waiting, hides doubt behind momentum",
			Pst: "A door closed early that you still push against",
			Pre: "Carrying more than you admit to anyone",
			Ftr: "A clean start arrives once you stop rushing it",
		},
	},
	Taurus: {
		keywords:  "Stubborn, Grounded, Loyal, Creative",
		vedicName: "Vrishabha",
		narrative: Narrative{
			Per: "Steady on the outside, particular about comfort",
			Pst: "Built something slowly that others undervalued",
			Pre: "Weighing whether to hold on or let go",
			Ftr: "Patience pays out in something you can touch",
		},
	},
	Gemini: {
		keywords:  "Dual, Intellectual, Adaptive, Searching",
		vedicName: "Mithuna",
		narrative: Narrative{
			Per: "Two minds about most things, curious about all of them",
			Pst: "A conversation that changed your direction",
			Pre: "Juggling plans that compete for the same hours",
			Ftr: "One choice narrows the noise and frees you",
		},
	},
	Cancer: {
		keywords:  "Intuitive, Nostalgic, Empathetic, Protective",
		vedicName: "Karka",
		narrative: Narrative{
			Per: "Remembers everything, forgives slowly, guards the few",
			Pst: "Home meant something complicated growing up",
			Pre: "Looking after someone at your own expense",
			Ftr: "A safe place of your own takes shape",
		},
	},
	Leo: {
		keywords:  "Proud, Protective, Playful, Intense",
		vedicName: "Simha",
		narrative: Narrative{
			Per: "Warm, loud when happy, quiet when hurt",
			Pst: "Recognition came late or not at all",
			Pre: "Performing strength while needing support",
			Ftr: "Credit finds you without having to ask",
		},
	},
	Virgo: {
		keywords:  "Analytical, Organized, Sensitive, Critical",
		vedicName: "Kanya",
		narrative: Narrative{
			Per: "Notices the flaw first and fixes it quietly",
			Pst: "Held to a standard nobody else could meet",
			Pre: "Overthinking a decision that is already made",
			Ftr: "Order returns and with it some rest",
		},
	},
	Libra: {
		keywords:  "Balanced, Indecisive, Diplomatic, Refined",
		vedicName: "Tula",
		narrative: Narrative{
			Per: "Keeps the peace, sometimes at the cost of the truth",
			Pst: "Chose harmony over what you really wanted",
			Pre: "Two people pulling you in different directions",
			Ftr: "A fair outcome you stop apologising for",
		},
	},
	Scorpio: {
		keywords:  "Magnetic, Transformative, Private, Observant",
		vedicName: "Vrishchika",
		narrative: Narrative{
			Per: "Reads the room and reveals little",
			Pst: "A betrayal taught you to watch closely",
			Pre: "Something hidden is close to surfacing",
			Ftr: "An ending clears the way for a stronger self",
		},
	},
	Sagittarius: {
		keywords:  "Philosophical, Honest, Resilient, Independent",
		vedicName: "Dhanu",
		narrative: Narrative{
			Per: "Blunt, hopeful, restless when boxed in",
			Pst: "Left a place that was too small for you",
			Pre: "Planning an escape, even if only in your head",
			Ftr: "Distance brings the perspective you were missing",
		},
	},
	Capricorn: {
		keywords:  "Strategic, Self-reliant, Ambitious, Humorous",
		vedicName: "Makara",
		narrative: Narrative{
			Per: "Dry humour over a long-term plan",
			Pst: "Grew up faster than you should have",
			Pre: "Working hard for a result others cannot see yet",
			Ftr: "Slow effort turns into real standing",
		},
	},
	Aquarius: {
		keywords:  "Visionary, Independent, Altruistic, Rebellious",
		vedicName: "Kumbha",
		narrative: Narrative{
			Per: "Thinks ahead of the room and keeps some distance",
			Pst: "Felt like the outsider in a close group",
			Pre: "An idea you have not shared yet keeps returning",
			Ftr: "The right people catch up to your thinking",
		},
	},
	Pisces: {
		keywords:  "Dreamer, Fluid, Chameleonic, Soulful",
		vedicName: "Meena",
		narrative: Narrative{
			Per: "Absorbs every mood and turns it into feeling",
			Pst: "Gave more than was returned",
			Pre: "Drifting between what is and what could be",
			Ftr: "A creative thread becomes a real path",
		},
	},
}

// Keywords returns the four-word keyword line for s, or "" for an unknown sign.
func (s Sign) Keywords() string { return profiles[s].keywords }

// VedicName returns the Sanskrit name of s, e.g. "Makara" for Capricorn.
func (s Sign) VedicName() string { return profiles[s].vedicName }

// Narrative returns the four-part reading for s.
func (s Sign) Narrative() Narrative { return profiles[s].narrative }
