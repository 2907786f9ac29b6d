package advisor

import "moneybook/internal/core"

type topic int

const (
	topicDefault topic = iota
	topicSaving
	topicSpending
	topicIncome
	topicInvesting
)

type texts struct {
	suggestions []string
	questions   []string

	summaryTitle string
	income       string
	expenses     string
	balance      string
	savingRate   string
	topCategory  string

	// answers take the savings rate and the top expense category label.
	answers map[topic]string

	unavailable string
}

var tables = map[core.Locale]texts{
	core.English: {
		suggestions: []string{
			"Creating a detailed budget to track all expenses",
			"Automating transfers to a savings account",
			"Reducing discretionary spending on non-essential items",
			"Looking for opportunities to increase your income",
			"Reviewing and negotiating fixed expenses like insurance and subscriptions",
			"Building an emergency fund of 3-6 months of expenses",
			"Setting specific financial goals with deadlines",
			"Tracking your net worth monthly",
			"Learning about investment options appropriate for your risk tolerance",
			"Considering the 50/30/20 rule for budgeting",
		},
		questions: []string{
			"How can I improve my saving rate?",
			"What are some good financial goals to set?",
			"How can I budget better?",
			"What investment strategies do you recommend?",
		},
		summaryTitle: "Financial Summary:",
		income:       "Total Income",
		expenses:     "Total Expenses",
		balance:      "Balance",
		savingRate:   "Saving Rate",
		topCategory:  "Highest expense category",
		answers: map[topic]string{
			topicSaving:    "Your saving rate is %.1f%%. Aim for at least 20%%: automate a transfer to savings on payday and review %s, your largest expense.",
			topicSpending:  "Your saving rate is %.1f%%. Most of your spending goes to %s; set a monthly cap for it and track it weekly.",
			topicIncome:    "Your saving rate is %.1f%%. Consider a side income or asking for a raise, and keep %s, your largest expense, from growing with it.",
			topicInvesting: "Your saving rate is %.1f%%. Build an emergency fund first, keep %s under control, then invest regularly in low-cost diversified funds.",
			topicDefault:   "Your saving rate is %.1f%%. Keep tracking every transaction and pay particular attention to %s, your largest expense.",
		},
		unavailable: "Sorry, the AI service is temporarily unavailable. Please try again later.",
	},
	core.Chinese: {
		suggestions: []string{
			"创建详细预算以跟踪所有支出",
			"自动转账到储蓄账户",
			"减少非必要项目的自由支出",
			"寻找增加收入的机会",
			"审查并协商固定支出，如保险和订阅服务",
			"建立3-6个月支出的应急基金",
			"设定有截止日期的具体财务目标",
			"每月跟踪你的净资产",
			"了解适合你风险承受能力的投资选择",
			"考虑50/30/20预算规则",
		},
		questions: []string{
			"如何提高我的储蓄率？",
			"设定什么样的财务目标比较好？",
			"如何更好地规划预算？",
			"推荐哪些投资策略？",
		},
		summaryTitle: "财务摘要：",
		income:       "总收入",
		expenses:     "总支出",
		balance:      "结余",
		savingRate:   "储蓄率",
		topCategory:  "最高支出类别",
		answers: map[topic]string{
			topicSaving:    "你的储蓄率为 %.1f%%。建议至少达到 20%%：发薪日自动转账到储蓄账户，并检查最大的支出类别%s。",
			topicSpending:  "你的储蓄率为 %.1f%%。大部分支出用于%s，请为其设定每月上限并每周跟踪。",
			topicIncome:    "你的储蓄率为 %.1f%%。可以考虑副业或争取加薪，同时避免最大的支出类别%s随之增长。",
			topicInvesting: "你的储蓄率为 %.1f%%。先建立应急基金，控制%s的支出，然后定期投资低成本的分散化基金。",
			topicDefault:   "你的储蓄率为 %.1f%%。继续记录每一笔交易，特别关注最大的支出类别%s。",
		},
		unavailable: "抱歉，AI 服务暂时不可用，请稍后再试。",
	},
	core.Spanish: {
		suggestions: []string{
			"Crear un presupuesto detallado para seguir todos los gastos",
			"Automatizar transferencias a una cuenta de ahorros",
			"Reducir el gasto discrecional en artículos no esenciales",
			"Buscar oportunidades para aumentar sus ingresos",
			"Revisar y negociar gastos fijos como seguros y suscripciones",
			"Construir un fondo de emergencia de 3-6 meses de gastos",
			"Establecer metas financieras específicas con plazos",
			"Seguir su patrimonio neto mensualmente",
			"Aprender sobre opciones de inversión apropiadas para su tolerancia al riesgo",
			"Considerar la regla 50/30/20 para presupuestar",
		},
		questions: []string{
			"¿Cómo puedo mejorar mi tasa de ahorro?",
			"¿Qué objetivos financieros debería establecer?",
			"¿Cómo puedo presupuestar mejor?",
			"¿Qué estrategias de inversión recomiendas?",
		},
		summaryTitle: "Resumen financiero:",
		income:       "Ingresos totales",
		expenses:     "Gastos totales",
		balance:      "Balance",
		savingRate:   "Tasa de ahorro",
		topCategory:  "Categoría de mayor gasto",
		answers: map[topic]string{
			topicSaving:    "Su tasa de ahorro es %.1f%%. Apunte al menos al 20%%: automatice una transferencia al ahorro el día de pago y revise %s, su mayor gasto.",
			topicSpending:  "Su tasa de ahorro es %.1f%%. La mayor parte de su gasto va a %s; fije un límite mensual y revíselo cada semana.",
			topicIncome:    "Su tasa de ahorro es %.1f%%. Considere un ingreso extra o pedir un aumento, sin dejar que %s, su mayor gasto, crezca con él.",
			topicInvesting: "Su tasa de ahorro es %.1f%%. Primero construya un fondo de emergencia, controle %s y luego invierta con regularidad en fondos diversificados de bajo costo.",
			topicDefault:   "Su tasa de ahorro es %.1f%%. Siga registrando cada transacción y preste atención a %s, su mayor gasto.",
		},
		unavailable: "Lo sentimos, el servicio de IA no está disponible temporalmente. Inténtelo de nuevo más tarde.",
	},
}

// keywords map question fragments to topics, checked in order.
var keywords = []struct {
	topic topic
	words []string
}{
	{topicSaving, []string{"saving", "save", "储蓄", "存钱", "ahorr"}},
	{topicSpending, []string{"spend", "expense", "budget", "cut", "支出", "预算", "gast", "presupuest"}},
	{topicIncome, []string{"income", "earn", "salary", "收入", "ingreso"}},
	{topicInvesting, []string{"invest", "投资", "invers"}},
}
