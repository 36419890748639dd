package tokenizer

import "strings"

func wordSet(words string) map[string]struct{} {
	fields := strings.Fields(words)
	set := make(map[string]struct{}, len(fields))
	for _, w := range fields {
		set[w] = struct{}{}
	}
	return set
}

var stopwordsByLanguage = map[string]map[string]struct{}{
	"en": wordSet(`a about above after again against all am an and any are as at be because been
		before being below between both but by can could did do does doing down during each few for
		from further had has have having he her here hers herself him himself his how if in into is
		it its itself just me more most my myself no nor not now of off on once only or other our
		ours ourselves out over own same she should so some such than that the their theirs them
		themselves then there these they this those through to too under until up very was we were
		what when where which while who whom why will with would you your yours yourself yourselves`),
	"pt": wordSet(`a ao aos as com como da das de do dos e ela elas ele eles em entre era essa esse
		esta este eu foi isso isto já mais mas me na nas não no nos nós o os ou para pela pelas pelo
		pelos por qual quando que quem se sem ser seu seus sua suas são também te tem um uma umas uns
		você é`),
	"es": wordSet(`a al algo como con cual cuando de del donde el ella ellas ellos en entre era es esa
		ese esta este esto fue ha hay la las le les lo los me mi mientras muy más no nos o para pero
		por porque que quien se sin sobre su sus también te tu un una unas uno unos y ya yo él`),
	"fr": wordSet(`au aux avec ce ces cette dans de des du elle elles en est et eux il ils je la le
		les leur lui ma mais me mes moi mon ne nos notre nous on ou par pas pour qu que qui sa se ses
		son sont sur ta te tes toi ton tu un une vos votre vous était être`),
	"de": wordSet(`aber als am an auch auf aus bei bin bis das dass dem den der des die du durch ein
		eine einem einen einer es für hat haben ich ihr im in ist ja kann mit nach nicht noch nur oder
		sein sich sie sind so über um und uns von vor war was welche wie wir wird zu zum zur`),
}

// Stopwords returns the stopword set for the base language of lang.
// Languages without a list get an empty set; the returned map must not be modified.
func Stopwords(lang string) map[string]struct{} {
	if set, ok := stopwordsByLanguage[BaseLanguage(lang)]; ok {
		return set
	}
	return emptySet
}

var emptySet = map[string]struct{}{}
